package authapi

import (
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	l := newLoginLimiter(3, time.Minute)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if blocked, _ := l.Blocked("alice", now); blocked {
			t.Fatalf("blocked after %d failures, want 3", i)
		}
		l.Fail("alice", now)
	}

	blocked, retryAfter := l.Blocked("alice", now)
	if !blocked {
		t.Fatal("want blocked after max failures")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("retryAfter = %v, want within (0, window]", retryAfter)
	}
}

func TestLoginLimiterWindowExpiry(t *testing.T) {
	l := newLoginLimiter(2, time.Minute)
	now := time.Now().UTC()

	l.Fail("alice", now)
	l.Fail("alice", now)
	if blocked, _ := l.Blocked("alice", now); !blocked {
		t.Fatal("want blocked inside the window")
	}

	later := now.Add(time.Minute + time.Second)
	if blocked, _ := l.Blocked("alice", later); blocked {
		t.Fatal("want unblocked once the window passed")
	}
}

func TestLoginLimiterResetClearsKey(t *testing.T) {
	l := newLoginLimiter(1, time.Minute)
	now := time.Now().UTC()

	l.Fail("alice", now)
	if blocked, _ := l.Blocked("alice", now); !blocked {
		t.Fatal("want blocked")
	}

	l.Reset("alice")
	if blocked, _ := l.Blocked("alice", now); blocked {
		t.Fatal("want unblocked after reset")
	}
}

func TestLoginLimiterKeysAreIndependent(t *testing.T) {
	l := newLoginLimiter(1, time.Minute)
	now := time.Now().UTC()

	l.Fail("alice", now)
	if blocked, _ := l.Blocked("bob", now); blocked {
		t.Fatal("failures for one key must not block another")
	}
}
