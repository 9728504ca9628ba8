// Package ratelimit implements a per-key sliding-window admission counter.
// Windows are evaluated lazily on each call; there is no background sweep
// and keys are never evicted once created.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults used when New receives non-positive arguments.
const (
	DefaultLimit  = 100
	DefaultWindow = 60 * time.Second
)

// Limiter admits at most limit requests per key within a trailing window.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// New creates a Limiter. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Admit prunes timestamps older than the window for key, then either
// records the request and admits it, or denies without recording.
func (l *Limiter) Admit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.limit {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}
