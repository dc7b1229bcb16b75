package friendship

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	pairs map[[2]string]*Friendship
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[[2]string]*Friendship)}
}

func (s *MemoryStore) Request(ctx context.Context, now time.Time, requesterID, addresseeID string) (Friendship, error) {
	if err := ctx.Err(); err != nil {
		return Friendship{}, err
	}
	requesterID, addresseeID, err := validatePair(requesterID, addresseeID)
	if err != nil {
		return Friendship{}, err
	}
	lo, hi := normalizePair(requesterID, addresseeID)
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pairs[[2]string{lo, hi}]; ok {
		if existing.Status == StatusAccepted {
			return Friendship{}, ErrAlreadyFriends
		}
		return Friendship{}, ErrRequestPending
	}

	f := &Friendship{
		UserLo:      lo,
		UserHi:      hi,
		RequesterID: requesterID,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	s.pairs[[2]string{lo, hi}] = f
	return *f, nil
}

func (s *MemoryStore) Accept(ctx context.Context, now time.Time, addresseeID, requesterID string) (Friendship, error) {
	if err := ctx.Err(); err != nil {
		return Friendship{}, err
	}
	addresseeID, requesterID, err := validatePair(addresseeID, requesterID)
	if err != nil {
		return Friendship{}, err
	}
	lo, hi := normalizePair(addresseeID, requesterID)
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.pairs[[2]string{lo, hi}]
	if !ok || f.Status != StatusPending || f.RequesterID != requesterID {
		return Friendship{}, ErrNotFound
	}

	acceptedAt := now
	f.Status = StatusAccepted
	f.AcceptedAt = &acceptedAt
	return *f, nil
}

func (s *MemoryStore) DeletePending(ctx context.Context, userID, otherID string) error {
	return s.deleteWithStatus(ctx, userID, otherID, StatusPending)
}

func (s *MemoryStore) RemoveFriend(ctx context.Context, userID, otherID string) error {
	return s.deleteWithStatus(ctx, userID, otherID, StatusAccepted)
}

func (s *MemoryStore) deleteWithStatus(ctx context.Context, userID, otherID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID, otherID, err := validatePair(userID, otherID)
	if err != nil {
		return err
	}
	lo, hi := normalizePair(userID, otherID)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.pairs[[2]string{lo, hi}]
	if !ok || f.Status != status {
		return ErrNotFound
	}
	delete(s.pairs, [2]string{lo, hi})
	return nil
}

func (s *MemoryStore) ListFriends(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, f := range s.pairs {
		if f.Status != StatusAccepted {
			continue
		}
		if f.UserLo == userID {
			out = append(out, f.UserHi)
		} else if f.UserHi == userID {
			out = append(out, f.UserLo)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) ListPending(ctx context.Context, userID string) ([]Friendship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Friendship
	for _, f := range s.pairs {
		if f.Status != StatusPending {
			continue
		}
		if f.UserLo == userID || f.UserHi == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].UserLo != out[j].UserLo {
			return out[i].UserLo < out[j].UserLo
		}
		return out[i].UserHi < out[j].UserHi
	})
	return out, nil
}

func (s *MemoryStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	userA, userB, err := validatePair(userA, userB)
	if err != nil {
		if errors.Is(err, ErrSelfRequest) {
			return false, nil
		}
		return false, err
	}
	lo, hi := normalizePair(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.pairs[[2]string{lo, hi}]
	return ok && f.Status == StatusAccepted, nil
}
