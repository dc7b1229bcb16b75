package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// PostgresStore implements Store using PostgreSQL (friendlines.refresh_tokens).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed refresh-token store.
// The pool is owned by the caller; the store never closes it.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// Issue revokes the user's active rows and inserts a fresh one, transactionally.
func (s *PostgresStore) Issue(ctx context.Context, now time.Time, userID, tokenHash string, expiresAt time.Time, revokeReason string) (string, error) {
	id := ulid.Make().String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		UPDATE friendlines.refresh_tokens
		SET revoked_at = $2,
		    revocation_reason = $3
		WHERE user_id = $1
		  AND revoked_at IS NULL
	`, userID, now, revokeReason)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO friendlines.refresh_tokens (
			id, user_id, token_hash,
			created_at, expires_at, revoked_at, revocation_reason
		) VALUES (
			$1, $2, $3,
			$4, $5, NULL, NULL
		)
	`, id, userID, tokenHash, now, expiresAt)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// FindActive loads an active row by token hash.
func (s *PostgresStore) FindActive(ctx context.Context, now time.Time, tokenHash string) (Row, error) {
	var row Row

	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, revocation_reason
		FROM friendlines.refresh_tokens
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`, tokenHash, now).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.CreatedAt,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.RevocationReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrRefreshNotActive
	}
	if err != nil {
		return Row{}, err
	}

	return row, nil
}

// Consume atomically revokes an active row and returns it.
//
// The single conditional UPDATE is the one-winner mechanism: under
// concurrent calls with the same token, exactly one statement matches the
// `revoked_at IS NULL` predicate.
func (s *PostgresStore) Consume(ctx context.Context, now time.Time, tokenHash string) (Row, error) {
	var row Row

	err := s.pool.QueryRow(ctx, `
		UPDATE friendlines.refresh_tokens
		SET revoked_at = $2,
		    revocation_reason = $3
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
		RETURNING id, user_id, token_hash, created_at, expires_at, revoked_at, revocation_reason
	`, tokenHash, now, ReasonRotated).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.CreatedAt,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.RevocationReason,
	)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Row{}, err
	}

	// The conditional update missed. Classify: a row revoked with
	// ReasonRotated means the token was already spent (reuse).
	var reason *string
	lookupErr := s.pool.QueryRow(ctx, `
		SELECT user_id, revocation_reason
		FROM friendlines.refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&row.UserID, &reason)
	if errors.Is(lookupErr, pgx.ErrNoRows) {
		return Row{}, ErrRefreshNotActive
	}
	if lookupErr != nil {
		return Row{}, lookupErr
	}

	if reason != nil && *reason == ReasonRotated {
		return row, ErrRefreshReuseDetected
	}
	return Row{}, ErrRefreshNotActive
}

// Revoke revokes the row for a token hash if still active (idempotent).
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, tokenHash, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE friendlines.refresh_tokens
		SET revoked_at = $2,
		    revocation_reason = $3
		WHERE token_hash = $1
		  AND revoked_at IS NULL
	`, tokenHash, now, reason)
	return err
}

// RevokeAllForUser revokes every active row for a user (idempotent).
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, now time.Time, userID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE friendlines.refresh_tokens
		SET revoked_at = $2,
		    revocation_reason = $3
		WHERE user_id = $1
		  AND revoked_at IS NULL
	`, userID, now, reason)
	return err
}
