package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	collections "github.com/kitapunya/expense-backend/internal/collections/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// RecordStore appends, reads and deletes expense rows of one resolved
// collection. Columns are matched by header name, so collections whose header
// was repaired by appending columns still decode correctly.
type RecordStore struct {
	tables sheets.Tables
	now    func() time.Time
}

func NewRecordStore(tables sheets.Tables) *RecordStore {
	return &RecordStore{tables: tables, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *RecordStore) WithClock(now func() time.Time) *RecordStore {
	s.now = now
	return s
}

func (s *RecordStore) newID(now time.Time) string {
	return fmt.Sprintf("exp_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Append writes rec with a fresh id and timestamp and returns the stored record.
func (s *RecordStore) Append(ctx context.Context, c *collections.Collection, rec domain.ExpenseRecord) (domain.ExpenseRecord, error) {
	now := s.now()
	rec.ID = s.newID(now)
	rec.Timestamp = now.UTC().Format(timestampLayout)
	if rec.Filename == "" {
		rec.Filename = "No"
	}

	if err := s.tables.AppendRow(ctx, c.Sheet(), encodeRecord(c.Header, rec)); err != nil {
		return domain.ExpenseRecord{}, fmt.Errorf("failed to append expense: %w", err)
	}
	return rec, nil
}

// ListAll reads every record, newest date first. Rows with equal dates keep
// their stored order; rows with unparseable dates sort last. A failed read is
// reported through Listing.Unavailable instead of an error.
func (s *RecordStore) ListAll(ctx context.Context, c *collections.Collection) domain.Listing {
	rows, err := s.tables.ReadRows(ctx, c.Sheet())
	if err != nil {
		return domain.Listing{Records: []domain.ExpenseRecord{}, Unavailable: true, Err: fmt.Errorf("failed to read expenses: %w", err)}
	}

	cols := columnIndex(c.Header)
	records := make([]domain.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		records = append(records, decodeRecord(cols, row))
	}
	sortByDateDesc(records)
	return domain.Listing{Records: records}
}

// DeleteCollection removes the whole collection. A collection that is
// already gone counts as deleted.
func (s *RecordStore) DeleteCollection(ctx context.Context, c *collections.Collection) error {
	err := s.tables.DeleteSheet(ctx, c.SheetID)
	if err != nil && !errors.Is(err, sheets.ErrSheetNotFound) {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// DeleteRecord removes the row holding id.
func (s *RecordStore) DeleteRecord(ctx context.Context, c *collections.Collection, id string) error {
	rows, err := s.tables.ReadRows(ctx, c.Sheet())
	if err != nil {
		return fmt.Errorf("failed to read expenses: %w", err)
	}
	idCol := columnIndex(c.Header)["ID"]
	for i, row := range rows {
		if cell(row, idCol) == id {
			if err := s.tables.DeleteRows(ctx, c.Sheet(), i, i+1); err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

// Clear deletes every data row and keeps the header. It returns how many
// rows were removed.
func (s *RecordStore) Clear(ctx context.Context, c *collections.Collection) (int, error) {
	rows, err := s.tables.ReadRows(ctx, c.Sheet())
	if err != nil {
		return 0, fmt.Errorf("failed to read expenses: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.tables.DeleteRows(ctx, c.Sheet(), 0, len(rows)); err != nil {
		return 0, fmt.Errorf("failed to clear expenses: %w", err)
	}
	return len(rows), nil
}

func sortByDateDesc(records []domain.ExpenseRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Date(), records[j].Date()
		if di.IsZero() || dj.IsZero() {
			return !di.IsZero() && dj.IsZero()
		}
		return di.After(dj)
	})
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseTotal(s string) int64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(v)
	}
	return 0
}

func decodeRecord(cols map[string]int, row []string) domain.ExpenseRecord {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return cell(row, i)
	}
	filename := get("Filename")
	if filename == "" {
		filename = "No"
	}
	return domain.ExpenseRecord{
		ID:        get("ID"),
		Toko:      get("Toko"),
		Kategori:  get("Kategori"),
		Total:     parseTotal(get("Total")),
		Tanggal:   get("Tanggal"),
		Alamat:    get("Alamat"),
		Catatan:   get("Catatan"),
		Filename:  filename,
		Timestamp: get("Timestamp"),
		Base64:    get("Base64"),
	}
}

func encodeRecord(header []string, rec domain.ExpenseRecord) []string {
	values := map[string]string{
		"ID":        rec.ID,
		"Toko":      rec.Toko,
		"Kategori":  rec.Kategori,
		"Total":     strconv.FormatInt(rec.Total, 10),
		"Tanggal":   rec.Tanggal,
		"Alamat":    rec.Alamat,
		"Catatan":   rec.Catatan,
		"Filename":  rec.Filename,
		"Timestamp": rec.Timestamp,
		"Base64":    rec.Base64,
	}
	if len(header) == 0 {
		header = collections.ExpenseHeader
	}
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = values[strings.TrimSpace(h)]
	}
	return row
}
