// Package cache holds the short-lived identity -> collection cache used by the
// resolver, in-process or shared through Redis.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kitapunya/expense-backend/internal/collections/domain"
)

type entry struct {
	collection domain.Collection
	expires    time.Time
}

// Memory is an expiring in-process map. Expired entries are never returned;
// Sweep reclaims them.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

// WithClock overrides the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, identity string) (domain.Collection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[identity]
	if !ok || !m.now().Before(e.expires) {
		return domain.Collection{}, false, nil
	}
	return e.collection, true, nil
}

func (m *Memory) Set(_ context.Context, identity string, c domain.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[identity] = entry{collection: c, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, identity)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
