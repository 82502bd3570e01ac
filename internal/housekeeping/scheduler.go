package housekeeping

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
)

const statsSpec = "@hourly"

// CacheSweeper drops expired handle cache entries.
type CacheSweeper interface {
	Sweep() int
}

type DirectoryStats interface {
	Stats(ctx context.Context) (directory.Stats, error)
}

// Scheduler runs periodic maintenance. Either dependency may be nil, in
// which case its job is not scheduled.
type Scheduler struct {
	cron    *cron.Cron
	sweeper CacheSweeper
	dir     DirectoryStats
}

func NewScheduler(sweeper CacheSweeper, dir DirectoryStats) *Scheduler {
	return &Scheduler{cron: cron.New(), sweeper: sweeper, dir: dir}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(sweepSpec string) error {
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(sweepSpec, s.SweepCache); err != nil {
			return err
		}
	}
	if s.dir != nil {
		if _, err := s.cron.AddFunc(statsSpec, s.LogDirectoryStats); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("[housekeeping] scheduler started (sweep=%q, stats=%q)", sweepSpec, statsSpec)
	return nil
}

// Stop stops the scheduler and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) SweepCache() {
	if n := s.sweeper.Sweep(); n > 0 {
		log.Printf("[housekeeping] swept %d expired handle cache entries", n)
	}
}

func (s *Scheduler) LogDirectoryStats() {
	st, err := s.dir.Stats(context.Background())
	if err != nil {
		log.Printf("[housekeeping] directory stats failed: %v", err)
		return
	}
	log.Printf("[housekeeping] users=%d provisioned=%d setup_complete=%d", st.Users, st.Provisioned, st.SetupComplete)
}
