package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

// DirectoryRepository reads and writes user profiles in the Users tab of the
// master spreadsheet. Only the tab handle is cached; rows are always read
// from the remote table.
type DirectoryRepository struct {
	tables sheets.Tables
	now    func() time.Time

	mu    sync.Mutex
	sheet *sheets.Sheet
}

func NewDirectoryRepository(tables sheets.Tables) *DirectoryRepository {
	return &DirectoryRepository{tables: tables, now: time.Now}
}

// WithClock overrides the time source used for LastLogin and CreatedAt.
func (r *DirectoryRepository) WithClock(now func() time.Time) *DirectoryRepository {
	r.now = now
	return r
}

// usersSheet returns the directory tab, creating it on first use.
func (r *DirectoryRepository) usersSheet(ctx context.Context) (sheets.Sheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sheet != nil {
		return *r.sheet, nil
	}

	list, err := r.tables.ListSheets(ctx)
	if err != nil {
		return sheets.Sheet{}, fmt.Errorf("failed to list sheets: %w", err)
	}
	s, ok := sheets.FindByTitle(list, domain.UsersSheetTitle)
	if !ok {
		s, err = r.tables.AddSheet(ctx, domain.UsersSheetTitle, domain.Header)
		if err != nil {
			return sheets.Sheet{}, fmt.Errorf("failed to create directory sheet: %w", err)
		}
	}
	r.sheet = &s
	return s, nil
}

func (r *DirectoryRepository) forgetSheet() {
	r.mu.Lock()
	r.sheet = nil
	r.mu.Unlock()
}

// withSheet runs fn against the directory tab, retrying once with a fresh
// lookup if the cached tab no longer exists.
func (r *DirectoryRepository) withSheet(ctx context.Context, fn func(sheets.Sheet) error) error {
	s, err := r.usersSheet(ctx)
	if err != nil {
		return err
	}
	err = fn(s)
	if !errors.Is(err, sheets.ErrSheetNotFound) {
		return err
	}

	r.forgetSheet()
	s, err = r.usersSheet(ctx)
	if err != nil {
		return err
	}
	return fn(s)
}

// locate returns the data rows and the index of the row for identity, or -1.
func (r *DirectoryRepository) locate(ctx context.Context, s sheets.Sheet, identity string) ([][]string, int, error) {
	rows, err := r.tables.ReadRows(ctx, s)
	if err != nil {
		return nil, -1, err
	}
	for i, row := range rows {
		if cell(row, domain.ColEmail) == identity {
			return rows, i, nil
		}
	}
	return rows, -1, nil
}

// Find returns the profile for identity or domain.ErrUserNotFound.
func (r *DirectoryRepository) Find(ctx context.Context, identity string) (*domain.UserProfile, error) {
	var found *domain.UserProfile
	err := r.withSheet(ctx, func(s sheets.Sheet) error {
		rows, idx, err := r.locate(ctx, s, identity)
		if err != nil {
			return err
		}
		if idx >= 0 {
			found = profileFromRow(rows[idx])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return found, nil
}

// Insert appends a new profile. CreatedAt and LastLogin default to now.
func (r *DirectoryRepository) Insert(ctx context.Context, p *domain.UserProfile) error {
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.LastLogin.IsZero() {
		p.LastLogin = now
	}

	err := r.withSheet(ctx, func(s sheets.Sheet) error {
		_, idx, err := r.locate(ctx, s, p.Email)
		if err != nil {
			return err
		}
		if idx >= 0 {
			return domain.ErrDuplicateIdentity
		}
		return r.tables.AppendRow(ctx, s, profileToRow(p))
	})
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update applies field-level overwrites and refreshes LastLogin.
func (r *DirectoryRepository) Update(ctx context.Context, identity string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	var updated *domain.UserProfile
	err := r.withSheet(ctx, func(s sheets.Sheet) error {
		rows, idx, err := r.locate(ctx, s, identity)
		if err != nil {
			return err
		}
		if idx < 0 {
			return domain.ErrUserNotFound
		}
		p := profileFromRow(rows[idx])
		upd.Apply(p)
		p.LastLogin = r.now()
		if err := r.tables.UpdateRow(ctx, s, idx, profileToRow(p)); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete removes the profile row.
func (r *DirectoryRepository) Delete(ctx context.Context, identity string) error {
	err := r.withSheet(ctx, func(s sheets.Sheet) error {
		_, idx, err := r.locate(ctx, s, identity)
		if err != nil {
			return err
		}
		if idx < 0 {
			return domain.ErrUserNotFound
		}
		return r.tables.DeleteRows(ctx, s, idx, idx+1)
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Stats counts directory rows.
func (r *DirectoryRepository) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	err := r.withSheet(ctx, func(s sheets.Sheet) error {
		rows, err := r.tables.ReadRows(ctx, s)
		if err != nil {
			return err
		}
		st = domain.Stats{}
		for _, row := range rows {
			if cell(row, domain.ColEmail) == "" {
				continue
			}
			p := profileFromRow(row)
			st.Users++
			if p.Provisioned() {
				st.Provisioned++
			}
			if p.IsSetupComplete {
				st.SetupComplete++
			}
		}
		return nil
	})
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to read directory: %w", err)
	}
	return st, nil
}
