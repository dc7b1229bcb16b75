package stream

import (
	"sync"
	"time"
)

// RateLimiter caps how many events a single connection may emit per
// sliding window. Timestamps live in a fixed ring sized to the limit,
// so a chatty client never grows memory.
type RateLimiter struct {
	mu     sync.Mutex
	stamps []time.Time
	head   int
	count  int
	limit  int
	window time.Duration
}

// NewRateLimiter falls back to the package defaults when limit or
// window is non-positive.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = rateLimitEvents
	}
	if window <= 0 {
		window = rateLimitWindow
	}
	return &RateLimiter{
		stamps: make([]time.Time, limit),
		limit:  limit,
		window: window,
	}
}

// Allow records an event at now and reports whether it fits the
// window. Callers pass time.Now so tests can drive the clock.
func (r *RateLimiter) Allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	for r.count > 0 && !r.stamps[r.head].After(cut) {
		r.head = (r.head + 1) % r.limit
		r.count--
	}

	if r.count >= r.limit {
		return false
	}
	r.stamps[(r.head+r.count)%r.limit] = now
	r.count++
	return true
}
