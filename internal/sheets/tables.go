// Package sheets adapts the Google Sheets API into a small tabular store.
//
// Every table is a tab of a single master spreadsheet. A tab is addressed by
// its numeric sheet id, which survives renames; the title is only needed to
// build A1 ranges and is refreshed by ListSheets.
package sheets

import "context"

// Sheet identifies one tab of the master spreadsheet.
type Sheet struct {
	ID    int64
	Title string
}

// Tables is the set of remote operations the directory and the record store
// need. Row indexes are 0-based and count data rows only (the header row is
// not addressable through them).
type Tables interface {
	ListSheets(ctx context.Context) ([]Sheet, error)
	AddSheet(ctx context.Context, title string, header []string) (Sheet, error)
	DeleteSheet(ctx context.Context, id int64) error

	ReadHeader(ctx context.Context, s Sheet) ([]string, error)
	WriteHeader(ctx context.Context, s Sheet, header []string) error

	ReadRows(ctx context.Context, s Sheet) ([][]string, error)
	AppendRow(ctx context.Context, s Sheet, row []string) error
	UpdateRow(ctx context.Context, s Sheet, index int, row []string) error
	DeleteRows(ctx context.Context, s Sheet, start, end int) error
}

// FindByID returns the sheet with the given id from a listing.
func FindByID(list []Sheet, id int64) (Sheet, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return Sheet{}, false
}

// FindByTitle returns the sheet with the given title from a listing.
func FindByTitle(list []Sheet, title string) (Sheet, bool) {
	for _, s := range list {
		if s.Title == title {
			return s, true
		}
	}
	return Sheet{}, false
}
