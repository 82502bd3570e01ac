package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kitapunya/expense-backend/internal/collections/domain"
	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/metrics"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

// MaxNameAttempts bounds how many generated names are tried before falling
// back to a timestamp name.
const MaxNameAttempts = 10

var (
	nameAdjectives = []string{"Swift", "Bright", "Clear", "Fresh", "Smart", "Quick", "Active", "Dynamic", "Prime", "Ultra"}
	nameNouns      = []string{"Ledger", "Tracker", "Record", "Journal", "Book", "Log", "Notes", "Data", "File", "Sheet"}
)

// NameGenerator produces candidate collection titles.
type NameGenerator func() string

// RandomName combines an adjective, a noun and six hex digits, for example
// "SwiftLedger_3FA91C". Nothing in it derives from the user.
func RandomName() string {
	return fmt.Sprintf("%s%s_%06X",
		nameAdjectives[rand.IntN(len(nameAdjectives))],
		nameNouns[rand.IntN(len(nameNouns))],
		rand.IntN(1<<24))
}

// fallbackName is unique by construction and is not checked for collisions.
func fallbackName(now time.Time) string {
	return fmt.Sprintf("Sheet_%d_%06x", now.UnixMilli(), rand.IntN(1<<24))
}

// Provisioner creates new, empty private collections.
type Provisioner struct {
	tables sheets.Tables
	names  NameGenerator
	now    func() time.Time
}

func NewProvisioner(tables sheets.Tables) *Provisioner {
	return &Provisioner{tables: tables, names: RandomName, now: time.Now}
}

// WithNames replaces the name generator.
func (p *Provisioner) WithNames(names NameGenerator) *Provisioner {
	p.names = names
	return p
}

// Provision picks an unused title and creates the collection with the fixed
// expense header. The returned error wraps domain.ErrProvisioningFailed.
func (p *Provisioner) Provision(ctx context.Context, identity, displayName string) (*domain.Collection, error) {
	logger := logging.New(ctx)

	list, err := p.tables.ListSheets(ctx)
	if err != nil {
		metrics.Provisioning.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrProvisioningFailed, err)
	}
	taken := make(map[string]bool, len(list))
	for _, s := range list {
		taken[s.Title] = true
	}

	var (
		s       sheets.Sheet
		created bool
		outcome = "created"
	)
	for attempt := 1; attempt <= MaxNameAttempts && !created; attempt++ {
		candidate := p.names()
		if taken[candidate] {
			logger.Warnf("provision_collection", "name collision attempt=%d name=%s", attempt, candidate)
			continue
		}
		s, err = p.tables.AddSheet(ctx, candidate, domain.ExpenseHeader)
		switch {
		case errors.Is(err, sheets.ErrSheetExists):
			// taken by another writer after the listing
			taken[candidate] = true
			logger.Warnf("provision_collection", "name taken concurrently attempt=%d name=%s", attempt, candidate)
		case err != nil:
			metrics.Provisioning.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("%w: %w", domain.ErrProvisioningFailed, err)
		default:
			created = true
		}
	}
	if !created {
		outcome = "fallback_name"
		s, err = p.tables.AddSheet(ctx, fallbackName(p.now()), domain.ExpenseHeader)
		if err != nil {
			metrics.Provisioning.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("%w: %w", domain.ErrProvisioningFailed, err)
		}
	}
	metrics.Provisioning.WithLabelValues(outcome).Inc()
	logger.Infof("provision_collection", "created collection title=%s sheet_id=%d user=%s name=%q", s.Title, s.ID, identity, displayName)

	return &domain.Collection{
		Handle:  domain.HandleFor(s),
		SheetID: s.ID,
		Title:   s.Title,
		Header:  append([]string(nil), domain.ExpenseHeader...),
	}, nil
}
