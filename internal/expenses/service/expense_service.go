package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	collections "github.com/kitapunya/expense-backend/internal/collections/domain"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

// MaxPhotoChars bounds the embedded data URL so a row stays within the
// per-cell limit of the spreadsheet.
const MaxPhotoChars = 50000

var dataImageRe = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)

type Directory interface {
	Find(ctx context.Context, identity string) (*directory.UserProfile, error)
	Insert(ctx context.Context, p *directory.UserProfile) error
	Update(ctx context.Context, identity string, upd directory.ProfileUpdate) (*directory.UserProfile, error)
}

type Resolver interface {
	Resolve(ctx context.Context, identity, displayNameHint string) (*collections.Collection, error)
	Invalidate(ctx context.Context, identity string)
}

type Store interface {
	Append(ctx context.Context, c *collections.Collection, rec domain.ExpenseRecord) (domain.ExpenseRecord, error)
	ListAll(ctx context.Context, c *collections.Collection) domain.Listing
	DeleteRecord(ctx context.Context, c *collections.Collection, id string) error
	Clear(ctx context.Context, c *collections.Collection) (int, error)
}

// SaveRequest is a new expense as submitted by the client.
type SaveRequest struct {
	domain.NewExpense
	Filename  string
	PhotoData string
	UserEmail string
	UserName  string
}

type ExpenseService struct {
	dir      Directory
	resolver Resolver
	store    Store
	now      func() time.Time
}

func NewExpenseService(dir Directory, resolver Resolver, store Store) *ExpenseService {
	return &ExpenseService{dir: dir, resolver: resolver, store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *ExpenseService) WithClock(now func() time.Time) *ExpenseService {
	s.now = now
	return s
}

// EnsureUser registers identity with setup marked complete when no profile
// exists yet. Expense writes from unknown users create them on the fly.
func (s *ExpenseService) EnsureUser(ctx context.Context, identity, name string) (*directory.UserProfile, error) {
	p, err := s.dir.Find(ctx, identity)
	if err == nil {
		if !p.Provisioned() && !p.IsSetupComplete {
			done := true
			return s.dir.Update(ctx, identity, directory.ProfileUpdate{IsSetupComplete: &done})
		}
		return p, nil
	}
	if !errors.Is(err, directory.ErrUserNotFound) {
		return nil, err
	}

	if name == "" {
		name = strings.SplitN(identity, "@", 2)[0]
	}
	p = &directory.UserProfile{
		UID:             fmt.Sprintf("auto_%d", s.now().UnixMilli()),
		Email:           identity,
		Name:            name,
		Categories:      []string{},
		IsSetupComplete: true,
	}
	if err := s.dir.Insert(ctx, p); err != nil && !errors.Is(err, directory.ErrDuplicateIdentity) {
		return nil, err
	}
	logging.New(ctx).Infof("ensure_user", "auto-created user=%s", identity)
	return p, nil
}

// withCollection runs fn against the collection of identity. If the cached
// collection turned out to be gone, the cache is dropped and fn runs once more
// against a freshly resolved collection.
func (s *ExpenseService) withCollection(ctx context.Context, identity, name string, fn func(*collections.Collection) error) error {
	c, err := s.resolver.Resolve(ctx, identity, name)
	if err != nil {
		return err
	}
	err = fn(c)
	if !errors.Is(err, sheets.ErrSheetNotFound) {
		return err
	}

	logging.New(ctx).Warnf("expense_collection", "collection %s vanished, resolving again user=%s", c.Handle, identity)
	s.resolver.Invalidate(ctx, identity)
	c, err = s.resolver.Resolve(ctx, identity, name)
	if err != nil {
		return err
	}
	return fn(c)
}

// Save validates and stores a new expense in the user's collection.
func (s *ExpenseService) Save(ctx context.Context, req SaveRequest) (*domain.ExpenseRecord, error) {
	logger := logging.New(ctx)

	if req.UserEmail == "" {
		return nil, fmt.Errorf("%w: userEmail is required", domain.ErrInvalidExpense)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if _, err := s.EnsureUser(ctx, req.UserEmail, req.UserName); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	photo, filename := processPhoto(req.PhotoData, req.Filename)
	if req.PhotoData != "" && photo == "" {
		logger.Warnf("save_expense", "dropping photo user=%s size=%d", req.UserEmail, len(req.PhotoData))
	}

	rec := domain.ExpenseRecord{
		Toko:     req.Toko,
		Kategori: req.Kategori,
		Total:    req.Total,
		Tanggal:  req.Tanggal,
		Alamat:   req.Alamat,
		Catatan:  req.Catatan,
		Filename: filename,
		Base64:   photo,
	}

	var stored domain.ExpenseRecord
	err := s.withCollection(ctx, req.UserEmail, req.UserName, func(c *collections.Collection) error {
		var err error
		stored, err = s.store.Append(ctx, c, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("save_expense", "saved id=%s user=%s photo=%t", stored.ID, req.UserEmail, stored.HasPhoto())
	return &stored, nil
}

// List returns the user's records newest first. Any failure is reported in
// the listing rather than as an error.
func (s *ExpenseService) List(ctx context.Context, identity, name string) domain.Listing {
	logger := logging.New(ctx)

	if _, err := s.EnsureUser(ctx, identity, name); err != nil {
		logger.Warnf("list_expenses", "user verification failed user=%s: %v", identity, err)
	}

	var listing domain.Listing
	err := s.withCollection(ctx, identity, name, func(c *collections.Collection) error {
		listing = s.store.ListAll(ctx, c)
		if listing.Unavailable && errors.Is(listing.Err, sheets.ErrSheetNotFound) {
			return listing.Err
		}
		return nil
	})
	if err != nil {
		logger.Warnf("list_expenses", "collection unavailable user=%s: %v", identity, err)
		return domain.Listing{Records: []domain.ExpenseRecord{}, Unavailable: true, Err: err}
	}
	if listing.Unavailable {
		logger.Warnf("list_expenses", "read failed user=%s: %v", identity, listing.Err)
	}
	return listing
}

// Delete removes one record by id.
func (s *ExpenseService) Delete(ctx context.Context, identity, id string) error {
	return s.withCollection(ctx, identity, "", func(c *collections.Collection) error {
		return s.store.DeleteRecord(ctx, c, id)
	})
}

// Clear removes every record and keeps the collection.
func (s *ExpenseService) Clear(ctx context.Context, identity string) (int, error) {
	var n int
	err := s.withCollection(ctx, identity, "", func(c *collections.Collection) error {
		var err error
		n, err = s.store.Clear(ctx, c)
		return err
	})
	return n, err
}

// Stats totals the current month. The error is the listing failure, if any;
// the zero-valued stats are still usable then.
func (s *ExpenseService) Stats(ctx context.Context, identity string) (domain.Stats, error) {
	listing := s.List(ctx, identity, "")
	st := domain.MonthlyStats(listing.Records, s.now())
	if listing.Unavailable {
		return st, listing.Err
	}
	return st, nil
}

// processPhoto accepts a data:image URL within MaxPhotoChars whose payload is
// valid base64. It returns the payload to store and the display filename.
func processPhoto(data, name string) (string, string) {
	if data == "" {
		return "", "No"
	}
	m := dataImageRe.FindStringSubmatch(data)
	if m == nil || len(data) > MaxPhotoChars {
		return "", "No"
	}
	if _, err := base64.StdEncoding.DecodeString(data[len(m[0]):]); err != nil {
		return "", "No"
	}
	if name == "" {
		name = "photo." + m[1]
	}
	prefix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return data, prefix + "_" + name
}
