package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount accepts a JSON number or a numeric string, as older clients sent
// totals as form strings.
type Amount struct {
	Value int64
	Set   bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	} else {
		s = string(b)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		a.Value, a.Set = v, true
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return fmt.Errorf("total must be an integer, got %q", s)
	}
	a.Value, a.Set = int64(f), true
	return nil
}

type saveExpenseRequest struct {
	Toko      string `json:"toko"`
	Kategori  string `json:"kategori"`
	Total     Amount `json:"total"`
	Tanggal   string `json:"tanggal"`
	Alamat    string `json:"alamat"`
	Catatan   string `json:"catatan"`
	Filename  string `json:"filename"`
	PhotoData string `json:"photoData"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

type clearDataRequest struct {
	Email string `json:"email"`
}

type expenseResponse struct {
	ID        string `json:"id"`
	Toko      string `json:"toko"`
	Kategori  string `json:"kategori"`
	Total     int64  `json:"total"`
	Tanggal   string `json:"tanggal"`
	Alamat    string `json:"alamat"`
	Catatan   string `json:"catatan"`
	Filename  string `json:"filename"`
	HasPhoto  bool   `json:"hasPhoto"`
	Timestamp string `json:"timestamp"`
	Base64    string `json:"base64"`
}
