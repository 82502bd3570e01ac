package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	collections "github.com/kitapunya/expense-backend/internal/collections/domain"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	expenses "github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/logging"
)

type Directory interface {
	Find(ctx context.Context, identity string) (*directory.UserProfile, error)
	Insert(ctx context.Context, p *directory.UserProfile) error
	Update(ctx context.Context, identity string, upd directory.ProfileUpdate) (*directory.UserProfile, error)
	Delete(ctx context.Context, identity string) error
}

type Provisioner interface {
	Provision(ctx context.Context, identity, displayName string) (*collections.Collection, error)
}

type Resolver interface {
	Resolve(ctx context.Context, identity, displayNameHint string) (*collections.Collection, error)
	Open(ctx context.Context, profile *directory.UserProfile) (*collections.Collection, error)
	Invalidate(ctx context.Context, identity string)
}

type Store interface {
	ListAll(ctx context.Context, c *collections.Collection) expenses.Listing
	DeleteCollection(ctx context.Context, c *collections.Collection) error
}

type RegisterRequest struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type RegisterResult struct {
	User        *directory.UserProfile
	IsNew       bool
	AutoCreated bool
}

type SetupRequest struct {
	Nickname      string
	Purpose       string
	MonthlyBudget int64
	Categories    []string
}

type DeleteResult struct {
	CollectionDeleted bool
}

// ExportUser is the profile part of an export. The collection handle is
// left out on purpose.
type ExportUser struct {
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Nickname      string    `json:"nickname"`
	Purpose       string    `json:"purpose"`
	MonthlyBudget int64     `json:"monthlyBudget"`
	Categories    []string  `json:"categories"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ExportRecord struct {
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
}

type Export struct {
	ExportDate time.Time        `json:"exportDate"`
	User       ExportUser       `json:"user"`
	Expenses   []ExportRecord   `json:"expenses"`
	Statistics expenses.Summary `json:"statistics"`
}

type SpreadsheetInfo struct {
	Handle  string
	SheetID int64
	Open    bool
}

type UserService struct {
	dir         Directory
	provisioner Provisioner
	resolver    Resolver
	store       Store
	now         func() time.Time
	group       singleflight.Group
}

func NewUserService(dir Directory, provisioner Provisioner, resolver Resolver, store Store) *UserService {
	return &UserService{dir: dir, provisioner: provisioner, resolver: resolver, store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// registerTimeout bounds a shared registration, which runs detached from the
// callers' contexts.
const registerTimeout = time.Minute

// Register returns the existing profile (refreshing picture and last login)
// or creates a new one with a freshly provisioned collection. Provisioning
// failure leaves the handle empty and does not fail registration. A caller
// whose ctx ends stops waiting; the registration itself still completes.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	ch := s.group.DoChan(req.Email, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), registerTimeout)
		defer cancel()
		return s.register(fctx, req)
	})

	var out singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		return nil, out.Err
	}
	res := *out.Val.(*RegisterResult)
	u := *res.User
	res.User = &u
	return &res, nil
}

func (s *UserService) register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	logger := logging.New(ctx)

	_, err := s.dir.Find(ctx, req.Email)
	if err == nil {
		upd := directory.ProfileUpdate{}
		if req.Picture != "" {
			upd.Picture = &req.Picture
		}
		p, err := s.dir.Update(ctx, req.Email, upd)
		if err != nil {
			return nil, err
		}
		return &RegisterResult{User: p}, nil
	}
	if !errors.Is(err, directory.ErrUserNotFound) {
		return nil, err
	}

	handle := ""
	c, perr := s.provisioner.Provision(ctx, req.Email, req.Name)
	if perr != nil {
		logger.Warnf("register_user", "provisioning failed user=%s, continuing without collection: %v", req.Email, perr)
	} else {
		handle = c.Handle
	}

	uid := req.UID
	if uid == "" {
		uid = fmt.Sprintf("user_%d", s.now().UnixMilli())
	}
	p := &directory.UserProfile{
		UID:              uid,
		Email:            req.Email,
		Name:             req.Name,
		Picture:          req.Picture,
		Categories:       []string{},
		CollectionHandle: handle,
	}

	err = s.dir.Insert(ctx, p)
	if errors.Is(err, directory.ErrDuplicateIdentity) {
		// Another process registered the same identity meanwhile; keep theirs.
		if c != nil {
			if derr := s.store.DeleteCollection(ctx, c); derr != nil {
				logger.Warnf("register_user", "could not remove orphan collection %s: %v", c.Handle, derr)
			}
		}
		existing, ferr := s.dir.Find(ctx, req.Email)
		if ferr != nil {
			return nil, ferr
		}
		return &RegisterResult{User: existing}, nil
	}
	if err != nil {
		if c != nil {
			if derr := s.store.DeleteCollection(ctx, c); derr != nil {
				logger.Warnf("register_user", "could not remove orphan collection %s: %v", c.Handle, derr)
			}
		}
		return nil, err
	}

	logger.Infof("register_user", "registered user=%s collection=%q", req.Email, handle)
	return &RegisterResult{User: p, IsNew: true, AutoCreated: handle != ""}, nil
}

// Setup stores onboarding answers, marks setup complete and provisions the
// collection if the user still has none.
func (s *UserService) Setup(ctx context.Context, email string, req SetupRequest) (*directory.UserProfile, error) {
	done := true
	upd := directory.ProfileUpdate{
		Nickname:        &req.Nickname,
		Purpose:         &req.Purpose,
		MonthlyBudget:   &req.MonthlyBudget,
		Categories:      req.Categories,
		IsSetupComplete: &done,
	}
	p, err := s.dir.Update(ctx, email, upd)
	if err != nil {
		return nil, err
	}
	if p.Provisioned() {
		return p, nil
	}

	c, err := s.resolver.Resolve(ctx, email, p.Name)
	if err != nil {
		logging.New(ctx).Warnf("setup_user", "provisioning failed user=%s: %v", email, err)
		return p, nil
	}
	p.CollectionHandle = c.Handle
	return p, nil
}

func (s *UserService) Profile(ctx context.Context, email string) (*directory.UserProfile, error) {
	return s.dir.Find(ctx, email)
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, upd directory.ProfileUpdate) (*directory.UserProfile, error) {
	upd.CollectionHandle = nil
	return s.dir.Update(ctx, email, upd)
}

// DeleteAccount removes the collection and then the directory row. If the
// collection cannot be removed the row is kept, so nothing is half deleted.
func (s *UserService) DeleteAccount(ctx context.Context, email string) (*DeleteResult, error) {
	logger := logging.New(ctx)

	p, err := s.dir.Find(ctx, email)
	if err != nil {
		return nil, err
	}

	res := &DeleteResult{}
	c, err := s.resolver.Open(ctx, p)
	switch {
	case errors.Is(err, collections.ErrStaleHandle):
		logger.Infof("delete_account", "no live collection for user=%s", email)
	case err != nil:
		return nil, fmt.Errorf("failed to open collection: %w", err)
	default:
		if err := s.store.DeleteCollection(ctx, c); err != nil {
			return nil, err
		}
		res.CollectionDeleted = true
	}
	s.resolver.Invalidate(ctx, email)

	if err := s.dir.Delete(ctx, email); err != nil {
		return nil, err
	}
	logger.Infof("delete_account", "deleted user=%s collection_deleted=%t", email, res.CollectionDeleted)
	return res, nil
}

// Export gathers the profile summary and all records of a user.
func (s *UserService) Export(ctx context.Context, email string) (*Export, error) {
	p, err := s.dir.Find(ctx, email)
	if err != nil {
		return nil, err
	}

	records := []expenses.ExpenseRecord{}
	if c, err := s.resolver.Open(ctx, p); err == nil {
		listing := s.store.ListAll(ctx, c)
		if listing.Unavailable {
			logging.New(ctx).Warnf("export_data", "could not read expenses user=%s: %v", email, listing.Err)
		}
		records = listing.Records
	} else if !errors.Is(err, collections.ErrStaleHandle) {
		logging.New(ctx).Warnf("export_data", "could not open collection user=%s: %v", email, err)
	}

	out := &Export{
		ExportDate: s.now().UTC(),
		User: ExportUser{
			Email:         p.Email,
			Name:          p.Name,
			Nickname:      p.Nickname,
			Purpose:       p.Purpose,
			MonthlyBudget: p.MonthlyBudget,
			Categories:    p.Categories,
			CreatedAt:     p.CreatedAt,
		},
		Expenses:   make([]ExportRecord, 0, len(records)),
		Statistics: expenses.Summarize(records),
	}
	for _, r := range records {
		out.Expenses = append(out.Expenses, ExportRecord{
			ID:        r.ID,
			Toko:      r.Toko,
			Kategori:  r.Kategori,
			Total:     r.Total,
			Tanggal:   r.Tanggal,
			Alamat:    r.Alamat,
			Catatan:   r.Catatan,
			Filename:  r.Filename,
			HasPhoto:  r.HasPhoto(),
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}

// Spreadsheet reports the stored handle and, when it resolves, the sheet id.
func (s *UserService) Spreadsheet(ctx context.Context, email string) (*SpreadsheetInfo, error) {
	p, err := s.dir.Find(ctx, email)
	if err != nil {
		return nil, err
	}
	info := &SpreadsheetInfo{Handle: p.CollectionHandle}
	c, err := s.resolver.Open(ctx, p)
	if err == nil {
		info.Handle = c.Handle
		info.SheetID = c.SheetID
		info.Open = true
	} else if !errors.Is(err, collections.ErrStaleHandle) {
		return nil, err
	}
	return info, nil
}
