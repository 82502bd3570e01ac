package domain

import (
	"strconv"
	"strings"

	"github.com/kitapunya/expense-backend/internal/sheets"
)

// ExpenseHeader is the fixed column layout of every private collection.
var ExpenseHeader = []string{
	"ID", "Toko", "Kategori", "Total", "Tanggal", "Alamat", "Catatan", "Filename", "Timestamp", "Base64",
}

// Collection is an opened private collection. Handle is the stable identifier
// stored in the directory (the decimal sheet id); Title is only a label.
type Collection struct {
	Handle  string   `json:"handle"`
	SheetID int64    `json:"sheetId"`
	Title   string   `json:"title"`
	Header  []string `json:"header"`
}

func (c Collection) Sheet() sheets.Sheet {
	return sheets.Sheet{ID: c.SheetID, Title: c.Title}
}

// HandleFor returns the directory handle for a sheet.
func HandleFor(s sheets.Sheet) string {
	return strconv.FormatInt(s.ID, 10)
}

// ParseHandle splits a stored handle into a sheet id, or reports that it is a
// legacy title-based handle.
func ParseHandle(handle string) (id int64, legacy bool) {
	handle = strings.TrimSpace(handle)
	id, err := strconv.ParseInt(handle, 10, 64)
	if err != nil || id < 0 {
		return 0, true
	}
	return id, false
}

// MissingColumns returns the expected columns absent from header, in order.
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range ExpenseHeader {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
