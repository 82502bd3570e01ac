package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitapunya/expense-backend/internal/collections/cache"
	collections "github.com/kitapunya/expense-backend/internal/collections/service"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	dirrepo "github.com/kitapunya/expense-backend/internal/directory/repository"
	"github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/repository"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

var now = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

type env struct {
	mem      *sheets.Memory
	dir      *dirrepo.DirectoryRepository
	resolver *collections.Resolver
	svc      *ExpenseService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := sheets.NewMemory()
	dir := dirrepo.NewDirectoryRepository(mem)
	resolver := collections.NewResolver(dir, mem, collections.NewProvisioner(mem), cache.NewMemory(5*time.Minute))
	store := repository.NewRecordStore(mem)
	return &env{
		mem:      mem,
		dir:      dir,
		resolver: resolver,
		svc:      NewExpenseService(dir, resolver, store).WithClock(func() time.Time { return now }),
	}
}

func saveReq(toko, kategori string, total int64, tanggal string) SaveRequest {
	return SaveRequest{
		NewExpense: domain.NewExpense{Toko: toko, Kategori: kategori, Total: total, Tanggal: tanggal},
		UserEmail:  "a@x.com",
		UserName:   "Ayu",
	}
}

func TestSave_AutoRegistersAndLists(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	stored, err := e.svc.Save(ctx, saveReq("KFC", "makanan", 89000, "2024-03-14"))
	require.NoError(t, err)
	assert.Equal(t, "No", stored.Filename)

	p, err := e.dir.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, p.IsSetupComplete)
	assert.True(t, p.Provisioned())
	assert.True(t, strings.HasPrefix(p.UID, "auto_"))

	listing := e.svc.List(ctx, "a@x.com", "")
	require.False(t, listing.Unavailable)
	require.Len(t, listing.Records, 1)
	assert.Equal(t, int64(89000), listing.Records[0].Total)
	assert.Equal(t, "makanan", listing.Records[0].Kategori)
}

func TestSave_DateOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.svc.Save(ctx, saveReq("Early", "makanan", 1, "2024-03-10"))
	require.NoError(t, err)
	_, err = e.svc.Save(ctx, saveReq("Late", "makanan", 2, "2024-03-14"))
	require.NoError(t, err)

	listing := e.svc.List(ctx, "a@x.com", "")
	require.Len(t, listing.Records, 2)
	assert.Equal(t, "2024-03-14", listing.Records[0].Tanggal)
}

func TestSave_MapsFreeTextCategory(t *testing.T) {
	e := newEnv(t)
	stored, err := e.svc.Save(context.Background(), saveReq("Gojek", "Taxi", 20000, "2024-03-14"))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryTransportasi, stored.Kategori)
}

func TestSave_Validation(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Save(context.Background(), saveReq("KFC", "unknownthing", 1, "2024-03-14"))
	assert.ErrorIs(t, err, domain.ErrInvalidExpense)

	req := saveReq("KFC", "makanan", 1, "2024-03-14")
	req.UserEmail = ""
	_, err = e.svc.Save(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidExpense)
	assert.Equal(t, 0, e.mem.Calls(sheets.OpAdd))
}

func TestSave_Photo(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	req := saveReq("KFC", "makanan", 1, "2024-03-14")
	req.PhotoData = "data:image/png;base64,iVBORw0KGgo="
	stored, err := e.svc.Save(ctx, req)
	require.NoError(t, err)
	assert.True(t, stored.HasPhoto())
	assert.Regexp(t, `^[0-9A-F]{6}_photo\.png$`, stored.Filename)

	req.PhotoData = "https://example.com/x.png"
	stored, err = e.svc.Save(ctx, req)
	require.NoError(t, err)
	assert.False(t, stored.HasPhoto())
	assert.Equal(t, "No", stored.Filename)

	req.PhotoData = "data:image/jpeg;base64," + strings.Repeat("A", MaxPhotoChars)
	stored, err = e.svc.Save(ctx, req)
	require.NoError(t, err)
	assert.False(t, stored.HasPhoto())
}

func TestSave_RecoversWhenCachedCollectionVanished(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.svc.Save(ctx, saveReq("A", "makanan", 1, "2024-03-14"))
	require.NoError(t, err)
	before, err := e.dir.Find(ctx, "a@x.com")
	require.NoError(t, err)
	c, err := e.resolver.Resolve(ctx, "a@x.com", "")
	require.NoError(t, err)
	e.mem.DropSheet(c.SheetID)

	_, err = e.svc.Save(ctx, saveReq("B", "makanan", 2, "2024-03-15"))
	require.NoError(t, err)

	after, err := e.dir.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, before.CollectionHandle, after.CollectionHandle)

	listing := e.svc.List(ctx, "a@x.com", "")
	require.Len(t, listing.Records, 1)
	assert.Equal(t, "B", listing.Records[0].Toko)
}

func TestSave_ProvisioningFailureIsFatal(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.dir.Insert(context.Background(), &directory.UserProfile{Email: "a@x.com", IsSetupComplete: true}))
	e.mem.FailNext(sheets.OpAdd, errors.New("quota"))

	_, err := e.svc.Save(context.Background(), saveReq("A", "makanan", 1, "2024-03-14"))
	require.Error(t, err)
}

func TestList_UnavailableIsFlagged(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.svc.Save(ctx, saveReq("A", "makanan", 1, "2024-03-14"))
	require.NoError(t, err)

	e.mem.FailNext(sheets.OpReadRows, errors.New("backend error"))
	listing := e.svc.List(ctx, "a@x.com", "")
	assert.True(t, listing.Unavailable)
	assert.Empty(t, listing.Records)
}

func TestList_NotConfigured(t *testing.T) {
	dir := dirrepo.NewDirectoryRepository(sheets.Unconfigured{})
	resolver := collections.NewResolver(dir, sheets.Unconfigured{}, collections.NewProvisioner(sheets.Unconfigured{}), cache.NewMemory(time.Minute))
	svc := NewExpenseService(dir, resolver, repository.NewRecordStore(sheets.Unconfigured{}))

	listing := svc.List(context.Background(), "a@x.com", "")
	assert.True(t, listing.Unavailable)
	assert.ErrorIs(t, listing.Err, sheets.ErrNotConfigured)
}

func TestDeleteClearStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	a, err := e.svc.Save(ctx, saveReq("A", "makanan", 10000, "2024-03-14"))
	require.NoError(t, err)
	_, err = e.svc.Save(ctx, saveReq("B", "hiburan", 5000, "2024-03-02"))
	require.NoError(t, err)
	_, err = e.svc.Save(ctx, saveReq("C", "hiburan", 7000, "2024-02-02"))
	require.NoError(t, err)

	st, err := e.svc.Stats(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), st.MonthlyTotal)
	assert.Equal(t, int64(5000), st.CategoryTotals["hiburan"])

	require.NoError(t, e.svc.Delete(ctx, "a@x.com", a.ID))
	assert.ErrorIs(t, e.svc.Delete(ctx, "a@x.com", a.ID), domain.ErrRecordNotFound)

	n, err := e.svc.Clear(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, e.svc.List(ctx, "a@x.com", "").Records)
}

func TestDelete_UnknownUser(t *testing.T) {
	e := newEnv(t)
	err := e.svc.Delete(context.Background(), "ghost@x.com", "exp_1")
	assert.ErrorIs(t, err, directory.ErrUserNotFound)
}
