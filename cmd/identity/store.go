package identity

import (
	"context"
	"strings"
	"time"
)

// User is the friend-lines canonical security principal.
// PasswordHash is the server-stored PHC string; it must never leave the API boundary.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	FullName     string
	Email        string
	EmailNorm    string
	PasswordHash string

	CreatedAt time.Time
}

// CreateUserInput describes a user registration request.
// Username, FullName, Email and Password are all required.
type CreateUserInput struct {
	Username string
	FullName string
	Email    string
	Password string
	Now      time.Time
}

// SearchUsersInput is a case-insensitive substring search over
// username and full name.
type SearchUsersInput struct {
	Query  string
	Limit  int
	Offset int
}

// UpdateProfileInput mutates profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID   string
	FullName *string
	Now      time.Time
}

// Store is the user persistence boundary.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID returns ErrNotFound (or NotFoundError) for unknown ids.
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserByUsername looks up by the normalized username.
	GetUserByUsername(ctx context.Context, username string) (User, error)

	// SearchUsers returns users whose username or full name contains the
	// query, ordered by id for stable pagination. An empty query is invalid.
	SearchUsers(ctx context.Context, in SearchUsersInput) ([]User, error)

	UpdateProfile(ctx context.Context, in UpdateProfileInput) (User, error)
}

// Canonical lower-cases and trims an identifier (username or email) so
// uniqueness checks, lookups, and throttle keys ignore case and stray
// whitespace. The display form is stored separately on the User.
func Canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func clampSearch(in SearchUsersInput) SearchUsersInput {
	if in.Limit <= 0 {
		in.Limit = defaultSearchLimit
	}
	if in.Limit > maxSearchLimit {
		in.Limit = maxSearchLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	return in
}
