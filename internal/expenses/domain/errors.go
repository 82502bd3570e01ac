package domain

import "errors"

var (
	ErrInvalidExpense = errors.New("invalid expense")
	ErrRecordNotFound = errors.New("expense not found")
)
