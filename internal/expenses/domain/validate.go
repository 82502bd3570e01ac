package domain

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// NewExpense is the user-supplied part of a record.
type NewExpense struct {
	Toko     string
	Kategori string
	Total    int64
	Tanggal  string
	Alamat   string
	Catatan  string
}

// Normalize trims fields, maps the category and validates the result. Errors
// wrap ErrInvalidExpense.
func (n *NewExpense) Normalize() error {
	n.Toko = strings.TrimSpace(n.Toko)
	n.Tanggal = strings.TrimSpace(n.Tanggal)
	n.Alamat = strings.TrimSpace(n.Alamat)
	n.Catatan = strings.TrimSpace(n.Catatan)

	if n.Toko == "" {
		return fmt.Errorf("%w: toko is required", ErrInvalidExpense)
	}
	cat, ok := MapCategory(n.Kategori)
	if !ok {
		return fmt.Errorf("%w: unknown kategori %q", ErrInvalidExpense, n.Kategori)
	}
	n.Kategori = cat
	if n.Total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidExpense)
	}
	if !ValidDate(n.Tanggal) {
		return fmt.Errorf("%w: tanggal must be YYYY-MM-DD", ErrInvalidExpense)
	}
	return nil
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}
