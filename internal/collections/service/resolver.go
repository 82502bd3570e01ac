package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kitapunya/expense-backend/internal/collections/domain"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/metrics"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

// Directory is the subset of the master directory the resolver needs.
type Directory interface {
	Find(ctx context.Context, identity string) (*directory.UserProfile, error)
	Update(ctx context.Context, identity string, upd directory.ProfileUpdate) (*directory.UserProfile, error)
}

// HandleCache maps an identity to its last opened collection.
type HandleCache interface {
	Name() string
	Get(ctx context.Context, identity string) (domain.Collection, bool, error)
	Set(ctx context.Context, identity string, c domain.Collection) error
	Delete(ctx context.Context, identity string) error
}

// Resolver turns an identity into a ready-to-use collection, provisioning it
// when missing and re-provisioning it when the recorded handle went stale.
//
// Concurrent resolves for one identity within this process share a single
// flight, so at most one provisioning runs per identity at a time. Separate
// processes can still race; the directory row keeps the last handle written.
type Resolver struct {
	dir         Directory
	tables      sheets.Tables
	provisioner *Provisioner
	cache       HandleCache
	group       singleflight.Group
}

func NewResolver(dir Directory, tables sheets.Tables, provisioner *Provisioner, cache HandleCache) *Resolver {
	return &Resolver{dir: dir, tables: tables, provisioner: provisioner, cache: cache}
}

func (r *Resolver) CacheName() string {
	return r.cache.Name()
}

// flightTimeout bounds a shared resolve, which no longer follows any single
// caller's cancellation.
const flightTimeout = time.Minute

// Resolve returns the private collection of identity. It fails with
// directory.ErrUserNotFound when no profile exists; nothing is created then.
//
// The shared flight runs detached from ctx so one caller giving up does not
// fail the others or abandon a half provisioned collection; each caller
// still returns as soon as its own ctx is done.
func (r *Resolver) Resolve(ctx context.Context, identity, displayNameHint string) (*domain.Collection, error) {
	ch := r.group.DoChan(identity, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return r.resolve(fctx, identity, displayNameHint)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	c := res.Val.(*domain.Collection)
	return &domain.Collection{Handle: c.Handle, SheetID: c.SheetID, Title: c.Title, Header: append([]string(nil), c.Header...)}, nil
}

func (r *Resolver) resolve(ctx context.Context, identity, hint string) (*domain.Collection, error) {
	logger := logging.New(ctx)

	profile, err := r.dir.Find(ctx, identity)
	if err != nil {
		return nil, err
	}
	if hint == "" {
		hint = profile.Name
	}

	if !profile.Provisioned() {
		return r.provisionAndAttach(ctx, identity, hint)
	}

	if c, ok := r.cached(ctx, identity, profile.CollectionHandle); ok {
		return c, nil
	}

	c, err := r.open(ctx, identity, profile.CollectionHandle)
	if errors.Is(err, domain.ErrStaleHandle) {
		metrics.Repairs.WithLabelValues("stale").Inc()
		logger.Warnf("resolve_collection", "stale handle=%s user=%s, re-provisioning", profile.CollectionHandle, identity)
		r.forget(ctx, identity)
		return r.provisionAndAttach(ctx, identity, hint)
	}
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, identity, *c); err != nil {
		logger.Warnf("resolve_collection", "cache set failed: %v", err)
	}
	return c, nil
}

// Open returns the collection recorded on profile without provisioning. It
// fails with domain.ErrStaleHandle when the profile has no handle or the
// handle no longer resolves.
func (r *Resolver) Open(ctx context.Context, profile *directory.UserProfile) (*domain.Collection, error) {
	if !profile.Provisioned() {
		return nil, domain.ErrStaleHandle
	}
	if c, ok := r.cached(ctx, profile.Email, profile.CollectionHandle); ok {
		return c, nil
	}
	return r.open(ctx, profile.Email, profile.CollectionHandle)
}

// Invalidate drops the cached collection of identity.
func (r *Resolver) Invalidate(ctx context.Context, identity string) {
	r.forget(ctx, identity)
}

func (r *Resolver) forget(ctx context.Context, identity string) {
	if err := r.cache.Delete(ctx, identity); err != nil {
		logging.New(ctx).Warnf("invalidate_collection", "cache delete failed user=%s: %v", identity, err)
	}
}

func (r *Resolver) cached(ctx context.Context, identity, handle string) (*domain.Collection, bool) {
	c, ok, err := r.cache.Get(ctx, identity)
	if err != nil {
		logging.New(ctx).Warnf("resolve_collection", "cache get failed: %v", err)
	}
	if !ok || c.Handle != handle {
		metrics.HandleCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.HandleCache.WithLabelValues("hit").Inc()
	return &c, true
}

// open locates the collection behind handle and repairs its header. Legacy
// handles holding a tab title are migrated to the sheet id.
func (r *Resolver) open(ctx context.Context, identity, handle string) (*domain.Collection, error) {
	list, err := r.tables.ListSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	id, legacy := domain.ParseHandle(handle)
	var (
		s  sheets.Sheet
		ok bool
	)
	if legacy {
		s, ok = sheets.FindByTitle(list, handle)
	} else {
		s, ok = sheets.FindByID(list, id)
	}
	if !ok {
		return nil, domain.ErrStaleHandle
	}

	if legacy {
		newHandle := domain.HandleFor(s)
		if _, err := r.dir.Update(ctx, identity, directory.ProfileUpdate{CollectionHandle: &newHandle}); err != nil {
			return nil, fmt.Errorf("failed to migrate collection handle: %w", err)
		}
		logging.New(ctx).Infof("resolve_collection", "migrated handle title=%s to sheet_id=%d user=%s", handle, s.ID, identity)
	}

	header, err := r.repairHeader(ctx, s)
	if errors.Is(err, sheets.ErrSheetNotFound) {
		return nil, domain.ErrStaleHandle
	}
	if err != nil {
		return nil, err
	}

	return &domain.Collection{Handle: domain.HandleFor(s), SheetID: s.ID, Title: s.Title, Header: header}, nil
}

// repairHeader makes sure every expected column is present. Missing columns
// are appended; existing columns and data rows are never touched.
func (r *Resolver) repairHeader(ctx context.Context, s sheets.Sheet) ([]string, error) {
	header, err := r.tables.ReadHeader(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection header: %w", err)
	}

	missing := domain.MissingColumns(header)
	if len(missing) == 0 {
		return header, nil
	}

	repaired := append(append([]string(nil), header...), missing...)
	if len(header) == 0 {
		repaired = append([]string(nil), domain.ExpenseHeader...)
	}
	if err := r.tables.WriteHeader(ctx, s, repaired); err != nil {
		return nil, fmt.Errorf("failed to repair collection header: %w", err)
	}
	metrics.Repairs.WithLabelValues("header").Inc()
	logging.New(ctx).Infof("resolve_collection", "repaired header sheet_id=%d added=%v", s.ID, missing)
	return repaired, nil
}

func (r *Resolver) provisionAndAttach(ctx context.Context, identity, hint string) (*domain.Collection, error) {
	c, err := r.provisioner.Provision(ctx, identity, hint)
	if err != nil {
		return nil, err
	}
	if _, err := r.dir.Update(ctx, identity, directory.ProfileUpdate{CollectionHandle: &c.Handle}); err != nil {
		return nil, fmt.Errorf("failed to record collection handle: %w", err)
	}
	if err := r.cache.Set(ctx, identity, *c); err != nil {
		logging.New(ctx).Warnf("resolve_collection", "cache set failed: %v", err)
	}
	return c, nil
}
