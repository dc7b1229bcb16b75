package newsflash

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
	nextSeq int64
	byID    map[string]*Newsflash
	byRef   map[[2]string]string // (author, client ref) -> post id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*Newsflash),
		byRef: make(map[[2]string]string),
	}
}

func (s *MemoryStore) Append(ctx context.Context, now time.Time, in AppendInput) (Newsflash, error) {
	if err := ctx.Err(); err != nil {
		return Newsflash{}, err
	}
	in, err := validateAppend(in)
	if err != nil {
		return Newsflash{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ClientRef != "" {
		if id, ok := s.byRef[[2]string{in.AuthorID, in.ClientRef}]; ok {
			return *s.byID[id], nil
		}
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Newsflash{}, err
	}

	s.nextSeq++
	n := &Newsflash{
		ID:         id,
		Seq:        s.nextSeq,
		AuthorID:   in.AuthorID,
		Content:    in.Content,
		TargetType: in.TargetType,
		GroupID:    in.GroupID,
		ClientRef:  in.ClientRef,
		CreatedAt:  now,
	}
	s.byID[id] = n
	if in.ClientRef != "" {
		s.byRef[[2]string{in.AuthorID, in.ClientRef}] = id
	}
	return *n, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Newsflash, error) {
	if err := ctx.Err(); err != nil {
		return Newsflash{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Newsflash{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok || n.DeletedAt != nil {
		return Newsflash{}, ErrNotFound
	}
	return *n, nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, now time.Time, id, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	authorID = strings.TrimSpace(authorID)
	if id == "" || authorID == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok || n.DeletedAt != nil {
		return ErrNotFound
	}
	if n.AuthorID != authorID {
		return ErrNotAuthor
	}

	deletedAt := now
	n.DeletedAt = &deletedAt
	return nil
}

func (s *MemoryStore) ListFeed(ctx context.Context, authorIDs []string, page Page) ([]Newsflash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return nil, nil
	}

	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	return s.list(page, func(n *Newsflash) bool {
		return n.TargetType == TargetFriends && authors[n.AuthorID]
	}), nil
}

func (s *MemoryStore) ListByAuthor(ctx context.Context, authorID string, targets []string, page Page) ([]Newsflash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(authorID) == "" {
		return nil, ErrInvalidInput
	}
	if len(targets) == 0 {
		return nil, nil
	}

	allowed := make(map[string]bool, len(targets))
	for _, t := range targets {
		allowed[t] = true
	}
	return s.list(page, func(n *Newsflash) bool {
		return n.AuthorID == authorID && allowed[n.TargetType]
	}), nil
}

func (s *MemoryStore) ListByGroup(ctx context.Context, groupID string, page Page) ([]Newsflash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, ErrInvalidInput
	}

	return s.list(page, func(n *Newsflash) bool {
		return n.TargetType == TargetGroup && n.GroupID == groupID
	}), nil
}

// list returns matching live posts, newest first.
func (s *MemoryStore) list(page Page, match func(*Newsflash) bool) []Newsflash {
	page = page.clamp()

	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Newsflash
	for _, n := range s.byID {
		if n.DeletedAt == nil && match(n) {
			all = append(all, *n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq > all[j].Seq })

	start := page.offset()
	if start >= len(all) {
		return nil
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
