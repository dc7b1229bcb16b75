package notify

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity/ids"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	byToken map[string]*DeviceToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byToken: make(map[string]*DeviceToken)}
}

func (s *MemoryStore) Upsert(ctx context.Context, now time.Time, userID, token, platform string) (DeviceToken, error) {
	if err := ctx.Err(); err != nil {
		return DeviceToken{}, err
	}
	userID, token, platform, err := validateUpsert(userID, token, platform)
	if err != nil {
		return DeviceToken{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byToken[token]; ok {
		existing.UserID = userID
		existing.Platform = platform
		existing.Active = true
		existing.UpdatedAt = now
		return *existing, nil
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return DeviceToken{}, err
	}
	d := &DeviceToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byToken[token] = d
	return *d, nil
}

func (s *MemoryStore) Deactivate(ctx context.Context, now time.Time, userID, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byToken[token]
	if !ok || !d.Active || d.UserID != userID {
		return ErrNotFound
	}
	d.Active = false
	d.UpdatedAt = now
	return nil
}

func (s *MemoryStore) ActiveForUsers(ctx context.Context, userIDs []string) ([]DeviceToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	users := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DeviceToken
	for _, d := range s.byToken {
		if d.Active && users[d.UserID] {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
