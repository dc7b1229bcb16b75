package stream

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if !rl.Allow(now) {
			t.Fatalf("event %d denied within limit", i)
		}
	}
	if rl.Allow(now) {
		t.Fatal("event over the limit must be denied")
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	now := time.Now().UTC()

	rl.Allow(now)
	rl.Allow(now)
	if rl.Allow(now.Add(500 * time.Millisecond)) {
		t.Fatal("still inside the window")
	}
	if !rl.Allow(now.Add(1100 * time.Millisecond)) {
		t.Fatal("events outside the window must be forgotten")
	}
}

func TestRateLimiterRepeatedWindows(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	now := time.Now().UTC()

	for round := 0; round < 5; round++ {
		base := now.Add(time.Duration(round*2) * time.Second)
		if !rl.Allow(base) || !rl.Allow(base) {
			t.Fatalf("round %d: events in a fresh window denied", round)
		}
		if rl.Allow(base) {
			t.Fatalf("round %d: third event must be denied", round)
		}
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.limit != rateLimitEvents || rl.window != rateLimitWindow {
		t.Fatalf("got limit=%d window=%v", rl.limit, rl.window)
	}
}
