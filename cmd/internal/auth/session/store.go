package session

import (
	"context"
	"time"
)

// Revocation reasons stored alongside revoked rows. They are operator-facing
// metadata and never leak through the API.
const (
	ReasonRotated       = "rotated"
	ReasonLogout        = "logout"
	ReasonReuseDetected = "reuse_detected"
	ReasonNewLogin      = "new_login"
)

// Row mirrors a friendlines.refresh_tokens row.
type Row struct {
	ID               string
	UserID           string
	TokenHash        string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	RevocationReason *string
}

// Active reports whether the row is usable at the given instant.
func (r Row) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// Store abstracts persistence for refresh-token state.
//
// Consume is the rotation primitive and carries the concurrency contract:
// for a given token hash, exactly one concurrent Consume may succeed.
// Implementations enforce this with a conditional revoke (Postgres) or a
// single mutex (memory); read-then-write sequences are not acceptable.
type Store interface {
	// Issue inserts a fresh token row for the user. Any previously active
	// rows for the same user are revoked (reason ReasonNewLogin on login,
	// ReasonRotated during refresh) in the same atomic step, so at most one
	// refresh token per user is active at any time.
	Issue(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time, revokeReason string) (id string, err error)

	// FindActive loads the row for a token hash iff it is active at now.
	// Returns ErrRefreshNotActive otherwise.
	FindActive(ctx context.Context, now time.Time, tokenHash string) (Row, error)

	// Consume atomically revokes an active row (reason ReasonRotated) and
	// returns it. Failure modes:
	//   - ErrRefreshReuseDetected: the row exists but was already rotated away
	//   - ErrRefreshNotActive: unknown, expired, or revoked for another reason
	Consume(ctx context.Context, now time.Time, tokenHash string) (Row, error)

	// Revoke revokes the row for a token hash if it is still active.
	// Unknown or already-revoked tokens are not an error (logout idempotence).
	Revoke(ctx context.Context, now time.Time, tokenHash, reason string) error

	// RevokeAllForUser revokes every active row for a user (idempotent).
	RevokeAllForUser(ctx context.Context, now time.Time, userID, reason string) error
}
