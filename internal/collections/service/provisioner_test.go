package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitapunya/expense-backend/internal/collections/domain"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

// sequence returns names in order, repeating the last one.
func sequence(names ...string) (NameGenerator, *int) {
	calls := 0
	return func() string {
		n := names[min(calls, len(names)-1)]
		calls++
		return n
	}, &calls
}

func TestRandomName_Shape(t *testing.T) {
	re := regexp.MustCompile(`^(Swift|Bright|Clear|Fresh|Smart|Quick|Active|Dynamic|Prime|Ultra)(Ledger|Tracker|Record|Journal|Book|Log|Notes|Data|File|Sheet)_[0-9A-F]{6}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, re, RandomName())
	}
}

func TestProvision_WritesFixedHeader(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()

	c, err := NewProvisioner(mem).Provision(ctx, "a@x.com", "Ayu")
	require.NoError(t, err)

	header, rows, ok := mem.Snapshot(c.SheetID)
	require.True(t, ok)
	assert.Equal(t, domain.ExpenseHeader, header)
	assert.Empty(t, rows)
	assert.Equal(t, domain.HandleFor(c.Sheet()), c.Handle)
	assert.NotContains(t, c.Title, "a@x.com")
	assert.NotContains(t, c.Title, "Ayu")
}

func TestProvision_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	mem.Seed("SwiftLedger_000001", domain.ExpenseHeader)
	mem.Seed("SwiftLedger_000002", domain.ExpenseHeader)
	mem.Seed("SwiftLedger_000003", domain.ExpenseHeader)

	gen, calls := sequence("SwiftLedger_000001", "SwiftLedger_000002", "SwiftLedger_000003", "BrightBook_00000A", "never")
	c, err := NewProvisioner(mem).WithNames(gen).Provision(ctx, "a@x.com", "")
	require.NoError(t, err)

	assert.Equal(t, "BrightBook_00000A", c.Title)
	assert.Equal(t, 4, *calls)
}

func TestProvision_RetriesWhenNameTakenAfterListing(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	mem.FailNext(sheets.OpAdd, &sheets.RemoteError{
		Op:      sheets.OpAdd,
		Code:    http.StatusBadRequest,
		Message: `A sheet with the name "ClearNotes_00AA01" already exists.`,
	})

	gen, calls := sequence("ClearNotes_00AA01", "FreshLog_00AA02")
	c, err := NewProvisioner(mem).WithNames(gen).Provision(ctx, "a@x.com", "")
	require.NoError(t, err)

	assert.Equal(t, "FreshLog_00AA02", c.Title)
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 2, mem.Calls(sheets.OpAdd))
}

func TestProvision_FallsBackAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	mem.Seed("SwiftLedger_000001", domain.ExpenseHeader)

	gen, calls := sequence("SwiftLedger_000001")
	c, err := NewProvisioner(mem).WithNames(gen).Provision(ctx, "a@x.com", "")
	require.NoError(t, err)

	assert.Equal(t, MaxNameAttempts, *calls)
	assert.Regexp(t, `^Sheet_\d+_[0-9a-f]{6}$`, c.Title)
}

func TestProvision_HandlesAreDistinct(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	p := NewProvisioner(mem)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		c, err := p.Provision(ctx, "a@x.com", "")
		require.NoError(t, err)
		assert.False(t, seen[c.Handle])
		seen[c.Handle] = true
	}
}

func TestProvision_RemoteFailure(t *testing.T) {
	ctx := context.Background()
	mem := sheets.NewMemory()
	mem.FailNext(sheets.OpAdd, errors.New("permission denied"))

	_, err := NewProvisioner(mem).Provision(ctx, "a@x.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvisioningFailed)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestProvision_NotConfigured(t *testing.T) {
	_, err := NewProvisioner(sheets.Unconfigured{}).Provision(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, domain.ErrProvisioningFailed)
	assert.ErrorIs(t, err, sheets.ErrNotConfigured)
}
