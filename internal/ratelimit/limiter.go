// Package ratelimit implements the per-client sliding-window limiter applied
// to link creation. It is a soft control: state lives in-process and resets on
// restart, which is acceptable — slug uniqueness never depends on it.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows at most max requests per key within a sliding window.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	seen    map[string][]time.Time
	nowFunc func() time.Time
}

// NewLimiter creates a limiter allowing max requests per window for each key.
func NewLimiter(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 10
	}
	return &Limiter{
		window:  window,
		max:     max,
		seen:    make(map[string][]time.Time),
		nowFunc: time.Now,
	}
}

// Allow records a request for key and reports whether it is within budget.
// The read-modify-write on each key happens under the lock, so concurrent
// requests for the same key cannot race past the limit.
func (l *Limiter) Allow(key string) bool {
	now := l.nowFunc()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.seen[key][:0]
	for _, ts := range l.seen[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.max {
		l.seen[key] = recent
		return false
	}

	l.seen[key] = append(recent, now)
	return true
}

// Prune drops keys with no requests inside the current window. Meant to be
// called periodically so idle clients do not accumulate forever.
func (l *Limiter) Prune() {
	cutoff := l.nowFunc().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, times := range l.seen {
		live := false
		for _, ts := range times {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.seen, key)
		}
	}
}
