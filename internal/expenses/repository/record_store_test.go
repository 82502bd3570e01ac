package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	collections "github.com/kitapunya/expense-backend/internal/collections/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

func newCollection(mem *sheets.Memory, header []string, rows ...[]string) *collections.Collection {
	s := mem.Seed("SwiftLedger_ABC123", header, rows...)
	return &collections.Collection{Handle: collections.HandleFor(s), SheetID: s.ID, Title: s.Title, Header: header}
}

func TestRecordStore_AppendThenList(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewRecordStore(mem).WithClock(func() time.Time { return now })
	c := newCollection(mem, collections.ExpenseHeader)

	stored, err := store.Append(ctx, c, domain.ExpenseRecord{Toko: "KFC", Kategori: "makanan", Total: 89000, Tanggal: "2024-03-14"})
	require.NoError(t, err)
	assert.Regexp(t, `^exp_\d+_[0-9a-f]{8}$`, stored.ID)
	assert.Equal(t, "2024-03-14T10:00:00.000Z", stored.Timestamp)
	assert.Equal(t, "No", stored.Filename)

	listing := store.ListAll(ctx, c)
	require.False(t, listing.Unavailable)
	require.Len(t, listing.Records, 1)
	assert.Equal(t, int64(89000), listing.Records[0].Total)
	assert.Equal(t, "makanan", listing.Records[0].Kategori)
	assert.Equal(t, stored.ID, listing.Records[0].ID)
}

func TestRecordStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	store := NewRecordStore(mem)
	c := newCollection(mem, collections.ExpenseHeader)

	for _, r := range []domain.ExpenseRecord{
		{Toko: "A", Kategori: "makanan", Total: 1, Tanggal: "2024-03-10"},
		{Toko: "B", Kategori: "makanan", Total: 2, Tanggal: "2024-03-14"},
		{Toko: "C", Kategori: "makanan", Total: 3, Tanggal: "not a date"},
		{Toko: "D", Kategori: "makanan", Total: 4, Tanggal: "2024-03-10"},
	} {
		_, err := store.Append(ctx, c, r)
		require.NoError(t, err)
	}

	listing := store.ListAll(ctx, c)
	var order []string
	for _, r := range listing.Records {
		order = append(order, r.Toko)
	}
	assert.Equal(t, []string{"B", "A", "D", "C"}, order)
}

func TestRecordStore_DecodesByHeaderName(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	header := []string{"ID", "Toko", "Kategori", "Total", "Tanggal", "Alamat", "Catatan", "Filename", "DriveLink", "Timestamp", "Base64"}
	c := newCollection(mem, header,
		[]string{"exp_1", "Gojek", "transportasi", "20000", "2024-03-13", "", "", "", "http://x", "2024-03-13T00:00:00.000Z"},
		[]string{"", "", ""},
	)
	store := NewRecordStore(mem)

	stored, err := store.Append(ctx, c, domain.ExpenseRecord{Toko: "KFC", Kategori: "makanan", Total: 5, Tanggal: "2024-03-14", Base64: "data:image/png;base64,AA=="})
	require.NoError(t, err)

	_, rows, _ := mem.Snapshot(c.SheetID)
	last := rows[len(rows)-1]
	assert.Equal(t, "", last[8])
	assert.Equal(t, stored.Timestamp, last[9])
	assert.Equal(t, "data:image/png;base64,AA==", last[10])

	listing := store.ListAll(ctx, c)
	require.Len(t, listing.Records, 2)
	assert.Equal(t, "KFC", listing.Records[0].Toko)
	assert.True(t, listing.Records[0].HasPhoto())
	assert.Equal(t, "No", listing.Records[1].Filename)
	assert.Equal(t, int64(20000), listing.Records[1].Total)
}

func TestRecordStore_ListUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	store := NewRecordStore(mem)
	c := newCollection(mem, collections.ExpenseHeader)

	mem.FailNext(sheets.OpReadRows, errors.New("backend error"))
	listing := store.ListAll(ctx, c)
	assert.True(t, listing.Unavailable)
	assert.Empty(t, listing.Records)
	assert.Error(t, listing.Err)

	mem.DropSheet(c.SheetID)
	listing = store.ListAll(ctx, c)
	assert.True(t, listing.Unavailable)
	assert.ErrorIs(t, listing.Err, sheets.ErrSheetNotFound)

	empty := newCollection(mem, collections.ExpenseHeader)
	listing = store.ListAll(ctx, empty)
	assert.False(t, listing.Unavailable)
	assert.Empty(t, listing.Records)
}

func TestRecordStore_DeleteCollection(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	store := NewRecordStore(mem)
	c := newCollection(mem, collections.ExpenseHeader)

	require.NoError(t, store.DeleteCollection(ctx, c))
	_, _, ok := mem.Snapshot(c.SheetID)
	assert.False(t, ok)

	// already gone
	require.NoError(t, store.DeleteCollection(ctx, c))

	other := newCollection(mem, collections.ExpenseHeader)
	mem.FailNext(sheets.OpDelete, errors.New("permission denied"))
	assert.Error(t, store.DeleteCollection(ctx, other))
}

func TestRecordStore_DeleteRecordAndClear(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	store := NewRecordStore(mem)
	c := newCollection(mem, collections.ExpenseHeader)

	a, err := store.Append(ctx, c, domain.ExpenseRecord{Toko: "A", Kategori: "makanan", Tanggal: "2024-03-10"})
	require.NoError(t, err)
	_, err = store.Append(ctx, c, domain.ExpenseRecord{Toko: "B", Kategori: "makanan", Tanggal: "2024-03-11"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteRecord(ctx, c, a.ID))
	assert.ErrorIs(t, store.DeleteRecord(ctx, c, a.ID), domain.ErrRecordNotFound)

	listing := store.ListAll(ctx, c)
	require.Len(t, listing.Records, 1)
	assert.Equal(t, "B", listing.Records[0].Toko)

	n, err := store.Clear(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	header, rows, _ := mem.Snapshot(c.SheetID)
	assert.Equal(t, collections.ExpenseHeader, header)
	assert.Empty(t, rows)
}
