package group

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
	groups  map[string]*Group
	members map[string]map[string]time.Time   // group id -> user id -> joined at
	invites map[string]map[string]*Invitation // group id -> invitee id -> invitation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:  make(map[string]*Group),
		members: make(map[string]map[string]time.Time),
		invites: make(map[string]map[string]*Invitation),
	}
}

func (s *MemoryStore) Create(ctx context.Context, now time.Time, creatorID, name string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return Group{}, ErrInvalidInput
	}
	name, err := validateName(name)
	if err != nil {
		return Group{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := normalizeGroupName(name)
	for _, g := range s.groups {
		if g.CreatorID == creatorID && normalizeGroupName(g.Name) == norm {
			return Group{}, ErrNameTaken
		}
	}

	groupID, err := ids.NewULID(now)
	if err != nil {
		return Group{}, err
	}

	g := &Group{ID: groupID, Name: name, CreatorID: creatorID, CreatedAt: now}
	s.groups[groupID] = g
	s.members[groupID] = map[string]time.Time{creatorID: now}
	return *g, nil
}

func (s *MemoryStore) Get(ctx context.Context, groupID string) (Group, error) {
	if err := ctx.Err(); err != nil {
		return Group{}, err
	}
	if strings.TrimSpace(groupID) == "" {
		return Group{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Group{}, ErrNotFound
	}
	return *g, nil
}

func (s *MemoryStore) Invite(ctx context.Context, now time.Time, groupID, inviterID, inviteeID string) (Invitation, error) {
	if err := ctx.Err(); err != nil {
		return Invitation{}, err
	}
	groupID = strings.TrimSpace(groupID)
	inviterID = strings.TrimSpace(inviterID)
	inviteeID = strings.TrimSpace(inviteeID)
	if groupID == "" || inviterID == "" || inviteeID == "" || inviterID == inviteeID {
		return Invitation{}, ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Invitation{}, ErrNotFound
	}
	if _, ok := s.members[groupID][inviterID]; !ok {
		return Invitation{}, ErrNotMember
	}
	if _, ok := s.members[groupID][inviteeID]; ok {
		return Invitation{}, ErrAlreadyMember
	}
	if _, ok := s.invites[groupID][inviteeID]; ok {
		return Invitation{}, ErrInvitePending
	}

	inv := &Invitation{
		GroupID:   groupID,
		GroupName: g.Name,
		InviteeID: inviteeID,
		InviterID: inviterID,
		CreatedAt: now,
	}
	if s.invites[groupID] == nil {
		s.invites[groupID] = make(map[string]*Invitation)
	}
	s.invites[groupID][inviteeID] = inv
	return *inv, nil
}

func (s *MemoryStore) AcceptInvitation(ctx context.Context, now time.Time, groupID, inviteeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	groupID = strings.TrimSpace(groupID)
	inviteeID = strings.TrimSpace(inviteeID)
	if groupID == "" || inviteeID == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invites[groupID][inviteeID]; !ok {
		return ErrNotFound
	}
	delete(s.invites[groupID], inviteeID)
	if s.members[groupID] == nil {
		s.members[groupID] = make(map[string]time.Time)
	}
	s.members[groupID][inviteeID] = now
	return nil
}

func (s *MemoryStore) Leave(ctx context.Context, groupID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	if g.CreatorID == userID {
		return ErrCreatorCannotLeave
	}
	if _, ok := s.members[groupID][userID]; !ok {
		return ErrNotMember
	}
	delete(s.members[groupID], userID)
	return nil
}

func (s *MemoryStore) Members(ctx context.Context, groupID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.members[groupID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if !members[out[i]].Equal(members[out[j]]) {
			return members[out[i]].Before(members[out[j]])
		}
		return out[i] < out[j]
	})
	return out, nil
}

func (s *MemoryStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(groupID) == "" || strings.TrimSpace(userID) == "" {
		return false, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.members[groupID][userID]
	return ok, nil
}

func (s *MemoryStore) GroupsFor(ctx context.Context, userID string) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Group
	for id, members := range s.members {
		if _, ok := members[userID]; ok {
			out = append(out, *s.groups[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) InvitationsFor(ctx context.Context, userID string) ([]Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invitation
	for _, byInvitee := range s.invites {
		if inv, ok := byInvitee[userID]; ok {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].GroupID < out[j].GroupID
	})
	return out, nil
}
