// Package seen remembers which postings have been collected before, so a
// run can tell new postings from repeats and report when each was first seen.
package seen

import (
	"context"
	"sync"
	"time"
)

// Cache records first sightings of dedup keys. FirstSeen only reads, so a
// run can look keys up before its results are stored and record them after.
type Cache interface {
	// FirstSeen reports when key was first seen, if it is held at now
	FirstSeen(ctx context.Context, key string, now time.Time) (time.Time, bool, error)
	// MarkSeen records key as seen at now. It reports whether the key is new
	// and when it was first seen.
	MarkSeen(ctx context.Context, key string, now time.Time) (bool, time.Time, error)
}

// Memory is an in-process Cache with optional expiry
type Memory struct {
	ttl time.Duration

	mu    sync.Mutex
	first map[string]time.Time
}

// NewMemory returns an empty in-memory cache. A ttl of zero never expires.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, first: make(map[string]time.Time)}
}

// FirstSeen implements Cache
func (m *Memory) FirstSeen(_ context.Context, key string, now time.Time) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at, ok := m.first[key]
	if !ok || (m.ttl > 0 && now.Sub(at) >= m.ttl) {
		return time.Time{}, false, nil
	}
	return at, true, nil
}

// MarkSeen implements Cache
func (m *Memory) MarkSeen(_ context.Context, key string, now time.Time) (bool, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if at, ok := m.first[key]; ok && (m.ttl == 0 || now.Sub(at) < m.ttl) {
		return false, at, nil
	}
	m.first[key] = now
	return true, now, nil
}

// Len reports how many keys are held
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.first)
}
