package session

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MemoryStore is an in-memory Store for development and tests.
//
// A single mutex guards every operation end to end, so Consume keeps the
// one-winner guarantee without a database.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]*Row
	byUser map[string][]*Row
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHash: make(map[string]*Row),
		byUser: make(map[string][]*Row),
	}
}

var _ Store = (*MemoryStore)(nil)

// Issue revokes the user's active rows and inserts a fresh one, atomically.
func (s *MemoryStore) Issue(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time, revokeReason string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.byUser[userID] {
		if r.RevokedAt == nil {
			t := now
			reason := revokeReason
			r.RevokedAt = &t
			r.RevocationReason = &reason
		}
	}

	row := &Row{
		ID:        ulid.Make().String(),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	s.byHash[tokenHash] = row
	s.byUser[userID] = append(s.byUser[userID], row)

	return row.ID, nil
}

// FindActive loads an active row by token hash.
func (s *MemoryStore) FindActive(ctx context.Context, now time.Time, tokenHash string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byHash[tokenHash]
	if !ok || !r.Active(now) {
		return Row{}, ErrRefreshNotActive
	}
	return *r, nil
}

// Consume atomically revokes an active row and returns it.
func (s *MemoryStore) Consume(ctx context.Context, now time.Time, tokenHash string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byHash[tokenHash]
	if !ok {
		return Row{}, ErrRefreshNotActive
	}

	if r.RevokedAt != nil {
		if r.RevocationReason != nil && *r.RevocationReason == ReasonRotated {
			return Row{UserID: r.UserID}, ErrRefreshReuseDetected
		}
		return Row{}, ErrRefreshNotActive
	}
	if !r.ExpiresAt.After(now) {
		return Row{}, ErrRefreshNotActive
	}

	t := now
	reason := ReasonRotated
	r.RevokedAt = &t
	r.RevocationReason = &reason

	return *r, nil
}

// Revoke revokes the row for a token hash if still active (idempotent).
func (s *MemoryStore) Revoke(ctx context.Context, now time.Time, tokenHash, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byHash[tokenHash]
	if !ok || r.RevokedAt != nil {
		return nil
	}

	t := now
	rs := reason
	r.RevokedAt = &t
	r.RevocationReason = &rs
	return nil
}

// RevokeAllForUser revokes every active row for a user (idempotent).
func (s *MemoryStore) RevokeAllForUser(ctx context.Context, now time.Time, userID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.byUser[userID] {
		if r.RevokedAt == nil {
			t := now
			rs := reason
			r.RevokedAt = &t
			r.RevocationReason = &rs
		}
	}
	return nil
}
