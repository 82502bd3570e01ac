package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitapunya/expense-backend/internal/collections/cache"
	"github.com/kitapunya/expense-backend/internal/collections/domain"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/directory/repository"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

type fixture struct {
	mem      *sheets.Memory
	dir      *repository.DirectoryRepository
	cache    *cache.Memory
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := sheets.NewMemory()
	dir := repository.NewDirectoryRepository(mem)
	c := cache.NewMemory(5 * time.Minute)
	return &fixture{
		mem:      mem,
		dir:      dir,
		cache:    c,
		resolver: NewResolver(dir, mem, NewProvisioner(mem), c),
	}
}

func (f *fixture) register(t *testing.T, identity, handle string) {
	t.Helper()
	require.NoError(t, f.dir.Insert(context.Background(), &directory.UserProfile{Email: identity, Name: "Ayu", CollectionHandle: handle}))
}

func (f *fixture) storedHandle(t *testing.T, identity string) string {
	t.Helper()
	p, err := f.dir.Find(context.Background(), identity)
	require.NoError(t, err)
	return p.CollectionHandle
}

func TestResolve_ProvisionsWhenHandleEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")

	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Handle)
	assert.Equal(t, c.Handle, f.storedHandle(t, "a@x.com"))

	header, _, ok := f.mem.Snapshot(c.SheetID)
	require.True(t, ok)
	assert.Equal(t, domain.ExpenseHeader, header)
}

func TestResolve_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")

	first, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	second, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, first.Handle, second.Handle)
	assert.Equal(t, first.SheetID, second.SheetID)

	// cold cache opens the same collection again
	require.NoError(t, f.cache.Delete(ctx, "a@x.com"))
	third, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, first.SheetID, third.SheetID)
}

func TestResolve_CacheAvoidsRemoteOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.mem.Seed("SwiftLedger_ABC123", domain.ExpenseHeader)
	f.register(t, "a@x.com", domain.HandleFor(s))

	_, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	headerReads := f.mem.Calls(sheets.OpReadHeader)

	_, err = f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, headerReads, f.mem.Calls(sheets.OpReadHeader))
}

func TestResolve_SurvivesRename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.mem.Seed("SwiftLedger_ABC123", domain.ExpenseHeader, []string{"exp_1"})
	f.register(t, "a@x.com", domain.HandleFor(s))

	f.mem.RenameSheet(s.ID, "Renamed by hand")
	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, s.ID, c.SheetID)
	assert.Equal(t, "Renamed by hand", c.Title)
	assert.Equal(t, domain.HandleFor(s), f.storedHandle(t, "a@x.com"))
}

func TestResolve_SelfHealsDeletedCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.mem.Seed("SwiftLedger_ABC123", domain.ExpenseHeader)
	f.register(t, "a@x.com", domain.HandleFor(s))
	f.mem.DropSheet(s.ID)

	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, c.SheetID)
	assert.Equal(t, c.Handle, f.storedHandle(t, "a@x.com"))

	_, _, ok := f.mem.Snapshot(c.SheetID)
	assert.True(t, ok)
}

func TestResolve_SelfHealsAfterCacheWentStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")

	first, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	f.mem.DropSheet(first.SheetID)
	f.resolver.Invalidate(ctx, "a@x.com")

	second, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Handle, second.Handle)
}

func TestResolve_RepairsHeaderAdditively(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldHeader := domain.ExpenseHeader[:len(domain.ExpenseHeader)-1]
	rows := [][]string{
		{"exp_1", "KFC", "makanan", "89000", "2024-03-14", "", "", "No", "2024-03-14T10:00:00.000Z"},
		{"exp_2", "Gojek", "transportasi", "20000", "2024-03-13", "", "", "No", "2024-03-13T10:00:00.000Z"},
	}
	s := f.mem.Seed("Legacy", append([]string{"Extra"}, oldHeader...), rows...)
	f.register(t, "a@x.com", domain.HandleFor(s))

	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)

	header, gotRows, _ := f.mem.Snapshot(s.ID)
	assert.Equal(t, "Extra", header[0])
	assert.Equal(t, "Base64", header[len(header)-1])
	assert.Empty(t, domain.MissingColumns(header))
	assert.Equal(t, header, c.Header)
	assert.Equal(t, rows, gotRows)
}

func TestResolve_WritesHeaderOnEmptyCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.mem.Seed("Blank", nil)
	f.register(t, "a@x.com", domain.HandleFor(s))

	_, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	header, _, _ := f.mem.Snapshot(s.ID)
	assert.Equal(t, domain.ExpenseHeader, header)
}

func TestResolve_MigratesLegacyTitleHandle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.mem.Seed("SwiftLedger_ABC123", domain.ExpenseHeader)
	f.register(t, "a@x.com", "SwiftLedger_ABC123")

	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, s.ID, c.SheetID)
	assert.Equal(t, domain.HandleFor(s), f.storedHandle(t, "a@x.com"))
}

func TestResolve_UnknownUserCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.resolver.Resolve(ctx, "ghost@x.com", "")
	assert.ErrorIs(t, err, directory.ErrUserNotFound)
	assert.Equal(t, 0, f.mem.Calls(sheets.OpAdd))
}

func TestResolve_AfterDeletionIsUserNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")
	c, err := f.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)

	require.NoError(t, f.mem.DeleteSheet(ctx, c.SheetID))
	require.NoError(t, f.dir.Delete(ctx, "a@x.com"))
	f.resolver.Invalidate(ctx, "a@x.com")

	adds := f.mem.Calls(sheets.OpAdd)
	_, err = f.resolver.Resolve(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, directory.ErrUserNotFound)
	assert.Equal(t, adds, f.mem.Calls(sheets.OpAdd))
}

func TestResolve_ProvisioningFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")
	f.mem.FailNext(sheets.OpAdd, errors.New("quota"))

	_, err := f.resolver.Resolve(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, domain.ErrProvisioningFailed)
	assert.Equal(t, "", f.storedHandle(t, "a@x.com"))
}

func TestResolve_ConcurrentFirstResolveProvisionsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")

	var wg sync.WaitGroup
	handles := make([]string, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.resolver.Resolve(ctx, "a@x.com", "")
			if err == nil {
				handles[i] = c.Handle
			}
		}(i)
	}
	wg.Wait()

	stored := f.storedHandle(t, "a@x.com")
	for _, h := range handles {
		assert.Equal(t, stored, h)
	}
}

// gatedTables holds ListSheets open once armed, until release is closed.
type gatedTables struct {
	sheets.Tables
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedTables(inner sheets.Tables) *gatedTables {
	return &gatedTables{Tables: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedTables) ListSheets(ctx context.Context) ([]sheets.Sheet, error) {
	if g.armed.Load() {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Tables.ListSheets(ctx)
}

func TestResolve_CancelledCallerDoesNotFailOthers(t *testing.T) {
	mem := sheets.NewMemory()
	gate := newGatedTables(mem)
	dir := repository.NewDirectoryRepository(mem)
	resolver := NewResolver(dir, gate, NewProvisioner(gate), cache.NewMemory(5*time.Minute))
	require.NoError(t, dir.Insert(context.Background(), &directory.UserProfile{Email: "a@x.com", Name: "Ayu"}))
	adds := mem.Calls(sheets.OpAdd)
	gate.armed.Store(true)

	actx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(actx, "a@x.com", "")
		first <- err
	}()
	select {
	case <-gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("resolve never reached the sheet listing")
	}

	type result struct {
		c   *domain.Collection
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := resolver.Resolve(context.Background(), "a@x.com", "")
		second <- result{c, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(gate.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		require.NotEmpty(t, r.c.Handle)
		stored, err := dir.Find(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, r.c.Handle, stored.CollectionHandle)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a collection")
	}
	assert.Equal(t, adds+1, mem.Calls(sheets.OpAdd))
}

func TestOpen_DoesNotProvision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a@x.com", "")
	p, err := f.dir.Find(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = f.resolver.Open(ctx, p)
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
	assert.Equal(t, 0, f.mem.Calls(sheets.OpAdd))
}
