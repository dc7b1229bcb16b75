package authapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// loginLimiter is an in-memory fixed-window failure counter keyed by a
// caller-chosen string (client IP or normalized username). Only failed
// attempts are recorded, so legitimate users are never throttled by their
// own successful logins.
type loginLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

func newLoginLimiter(max int, window time.Duration) *loginLimiter {
	return &loginLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

// Blocked reports whether the key exceeded the failure budget, and how long
// until the oldest counted failure leaves the window.
func (l *loginLimiter) Blocked(key string, now time.Time) (bool, time.Duration) {
	if l == nil || key == "" || l.max <= 0 {
		return false, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, now)
	if len(kept) < l.max {
		return false, 0
	}
	retryAfter := kept[0].Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return true, retryAfter
}

// Fail records a failed attempt for the key.
func (l *loginLimiter) Fail(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, now)
	l.hits[key] = append(kept, now)
}

// Reset clears the key after a successful attempt.
func (l *loginLimiter) Reset(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// prune drops entries outside the window. Caller holds the lock.
func (l *loginLimiter) prune(key string, now time.Time) []time.Time {
	cut := now.Add(-l.window)
	var kept []time.Time
	for _, t := range l.hits[key] {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, key)
	} else {
		l.hits[key] = kept
	}
	return kept
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
	}
	WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
