package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
)

type registerRequest struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type setupRequest struct {
	Email         string      `json:"email"`
	Nickname      string      `json:"nickname"`
	Purpose       string      `json:"purpose"`
	MonthlyBudget json.Number `json:"monthlyBudget"`
	Categories    []string    `json:"categories"`
}

type updateProfileRequest struct {
	Email         string       `json:"email"`
	Name          *string      `json:"name"`
	Nickname      *string      `json:"nickname"`
	Purpose       *string      `json:"purpose"`
	MonthlyBudget *json.Number `json:"monthlyBudget"`
	Categories    []string     `json:"categories"`
	Picture       *string      `json:"picture"`
}

type deleteAccountRequest struct {
	Email string `json:"email"`
}

// parseBudget accepts whole numbers sent either as numbers or strings.
func parseBudget(n json.Number) (int64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, fmt.Errorf("monthlyBudget must be a non-negative integer, got %q", s)
	}
	return int64(f), nil
}

func (r updateProfileRequest) toUpdate() (directory.ProfileUpdate, error) {
	upd := directory.ProfileUpdate{
		Name:       r.Name,
		Nickname:   r.Nickname,
		Purpose:    r.Purpose,
		Categories: r.Categories,
		Picture:    r.Picture,
	}
	if r.MonthlyBudget != nil {
		b, err := parseBudget(*r.MonthlyBudget)
		if err != nil {
			return upd, err
		}
		upd.MonthlyBudget = &b
	}
	return upd, nil
}
