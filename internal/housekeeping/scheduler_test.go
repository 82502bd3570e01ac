package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitapunya/expense-backend/internal/collections/cache"
	"github.com/kitapunya/expense-backend/internal/collections/domain"
	dirrepo "github.com/kitapunya/expense-backend/internal/directory/repository"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

func TestSweepCache(t *testing.T) {
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	mem := cache.NewMemory(time.Minute).WithClock(func() time.Time { return now })
	require.NoError(t, mem.Set(context.Background(), "a@x.com", domain.Collection{Handle: "1"}))

	now = now.Add(2 * time.Minute)
	NewScheduler(mem, nil).SweepCache()
	assert.Equal(t, 0, mem.Len())
}

func TestLogDirectoryStats(t *testing.T) {
	dir := dirrepo.NewDirectoryRepository(sheets.NewMemory())
	require.NoError(t, dir.Insert(context.Background(), &directory.UserProfile{Email: "a@x.com"}))

	// logs only; must not panic on a live directory or a failing one
	NewScheduler(nil, dir).LogDirectoryStats()
	NewScheduler(nil, dirrepo.NewDirectoryRepository(sheets.Unconfigured{})).LogDirectoryStats()
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(cache.NewMemory(time.Minute), nil)
	assert.Error(t, s.Start("not a spec"))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(cache.NewMemory(time.Minute), nil)
	require.NoError(t, s.Start("@every 1m"))
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
