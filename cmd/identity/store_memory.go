package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
// It applies the same normalization and uniqueness rules as PostgresStore.
type MemoryStore struct {
	mu sync.RWMutex

	byID       map[string]User
	byUsername map[string]string // username_norm -> id
	byEmail    map[string]string // email_norm -> id
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateUser registers a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return User{}, pgInvalid(op, "username is required")
	}
	if fullName == "" {
		return User{}, pgInvalid(op, "full_name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return User{}, pgInvalid(op, "valid email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, pgInvalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	usernameNorm := Canonical(username)
	emailNorm := Canonical(email)

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		if IsInvalidInput(err) {
			return User{}, err
		}
		return User{}, pgInvalid(op, err.Error())
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[usernameNorm]; exists {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if _, exists := s.byEmail[emailNorm]; exists {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u := User{
		ID:           userID,
		Username:     username,
		UsernameNorm: usernameNorm,
		FullName:     fullName,
		Email:        email,
		EmailNorm:    emailNorm,
		PasswordHash: pwHash,
		CreatedAt:    now,
	}

	s.byID[userID] = u
	s.byUsername[usernameNorm] = userID
	s.byEmail[emailNorm] = userID

	return u, nil
}

// GetUserByID fetches a user by id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, pgInvalid(op, "missing id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// GetUserByUsername fetches a user by normalized username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.GetUserByUsername"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	norm := Canonical(username)
	if norm == "" {
		return User{}, pgInvalid(op, "missing username")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[norm]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.byID[id], nil
}

// SearchUsers searches by username/full-name substring, case-insensitive.
func (s *MemoryStore) SearchUsers(ctx context.Context, in SearchUsersInput) ([]User, error) {
	const op = "identity.SearchUsers"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(in.Query))
	if q == "" {
		return nil, pgInvalid(op, "missing query")
	}
	in = clampSearch(in)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []User
	for _, u := range s.byID {
		if strings.Contains(u.UsernameNorm, q) || strings.Contains(strings.ToLower(u.FullName), q) {
			matched = append(matched, u)
		}
	}

	// Stable pagination order, same as the Postgres store.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if in.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[in.Offset:]
	if len(matched) > in.Limit {
		matched = matched[:in.Limit]
	}
	return matched, nil
}

// UpdateProfile applies profile changes. Nil fields are left unchanged.
func (s *MemoryStore) UpdateProfile(ctx context.Context, in UpdateProfileInput) (User, error) {
	const op = "identity.UpdateProfile"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return User{}, pgInvalid(op, "missing user_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	if in.FullName != nil {
		fullName := strings.TrimSpace(*in.FullName)
		if fullName == "" {
			return User{}, pgInvalid(op, "full_name must not be empty")
		}
		u.FullName = fullName
	}

	s.byID[userID] = u
	return u, nil
}
