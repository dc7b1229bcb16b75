package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_IssueAndFindActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	id, err := s.Issue(ctx, now, "user-1", "hash-1", now.Add(time.Hour), ReasonNewLogin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if id == "" {
		t.Fatal("missing id")
	}

	row, err := s.FindActive(ctx, now, "hash-1")
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if row.UserID != "user-1" {
		t.Fatalf("UserID = %q", row.UserID)
	}

	if _, err := s.FindActive(ctx, now, "unknown"); err != ErrRefreshNotActive {
		t.Fatalf("unknown hash: want ErrRefreshNotActive, got %v", err)
	}
	if _, err := s.FindActive(ctx, now.Add(2*time.Hour), "hash-1"); err != ErrRefreshNotActive {
		t.Fatalf("expired: want ErrRefreshNotActive, got %v", err)
	}
}

func TestMemoryStore_IssueRevokesPrevious(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Issue(ctx, now, "user-1", "hash-1", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Issue(ctx, now, "user-1", "hash-2", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}

	if _, err := s.FindActive(ctx, now, "hash-1"); err != ErrRefreshNotActive {
		t.Fatalf("old hash must be revoked, got %v", err)
	}
	if _, err := s.FindActive(ctx, now, "hash-2"); err != nil {
		t.Fatalf("new hash must be active, got %v", err)
	}
}

func TestMemoryStore_ConsumeClassifiesFailures(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Issue(ctx, now, "user-1", "hash-1", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}

	row, err := s.Consume(ctx, now, "hash-1")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if row.UserID != "user-1" {
		t.Fatalf("UserID = %q", row.UserID)
	}

	// Consuming again is reuse.
	reuse, err := s.Consume(ctx, now, "hash-1")
	if err != ErrRefreshReuseDetected {
		t.Fatalf("want ErrRefreshReuseDetected, got %v", err)
	}
	if reuse.UserID != "user-1" {
		t.Fatal("reuse must expose the owner for family revocation")
	}

	// A token revoked by logout is plain not-active, never reuse.
	if _, err := s.Issue(ctx, now, "user-2", "hash-2", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}
	if err := s.Revoke(ctx, now, "hash-2", ReasonLogout); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Consume(ctx, now, "hash-2"); err != ErrRefreshNotActive {
		t.Fatalf("logout-revoked: want ErrRefreshNotActive, got %v", err)
	}

	// Unknown and expired are not-active.
	if _, err := s.Consume(ctx, now, "unknown"); err != ErrRefreshNotActive {
		t.Fatalf("unknown: want ErrRefreshNotActive, got %v", err)
	}
	if _, err := s.Issue(ctx, now, "user-3", "hash-3", now.Add(time.Minute), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Consume(ctx, now.Add(time.Hour), "hash-3"); err != ErrRefreshNotActive {
		t.Fatalf("expired: want ErrRefreshNotActive, got %v", err)
	}
}

func TestMemoryStore_ConsumeSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Issue(ctx, now, "user-1", "hash-1", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Consume(ctx, now, "hash-1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
}

func TestMemoryStore_RevokeAllForUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Issue(ctx, now, "user-1", "hash-1", now.Add(time.Hour), ReasonNewLogin); err != nil {
		t.Fatal(err)
	}

	if err := s.RevokeAllForUser(ctx, now, "user-1", ReasonReuseDetected); err != nil {
		t.Fatal(err)
	}
	if err := s.RevokeAllForUser(ctx, now, "user-1", ReasonReuseDetected); err != nil {
		t.Fatal(err) // idempotent
	}
	if err := s.RevokeAllForUser(ctx, now, "nobody", ReasonLogout); err != nil {
		t.Fatal(err)
	}

	if _, err := s.FindActive(ctx, now, "hash-1"); err != ErrRefreshNotActive {
		t.Fatalf("want ErrRefreshNotActive after revoke-all, got %v", err)
	}
}
