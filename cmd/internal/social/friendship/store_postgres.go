package friendship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL. The pool is owned by the
// caller and must not be closed here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("friendship: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "friendlines"
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

const friendshipColumns = `user_lo, user_hi, requester_id, status, created_at, accepted_at`

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "friendships"}.Sanitize()
}

func (s *PostgresStore) Request(ctx context.Context, now time.Time, requesterID, addresseeID string) (Friendship, error) {
	requesterID, addresseeID, err := validatePair(requesterID, addresseeID)
	if err != nil {
		return Friendship{}, err
	}
	lo, hi := normalizePair(requesterID, addresseeID)

	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (user_lo, user_hi, requester_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		lo, hi, requesterID, StatusPending, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Friendship{}, s.classifyExisting(ctx, lo, hi)
		}
		return Friendship{}, err
	}

	return Friendship{
		UserLo:      lo,
		UserHi:      hi,
		RequesterID: requesterID,
		Status:      StatusPending,
		CreatedAt:   now,
	}, nil
}

// classifyExisting turns an insert conflict into the precise sentinel.
func (s *PostgresStore) classifyExisting(ctx context.Context, lo, hi string) error {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM `+s.table()+` WHERE user_lo = $1 AND user_hi = $2`,
		lo, hi,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row vanished between insert and select. Treat as pending.
			return ErrRequestPending
		}
		return err
	}
	if status == StatusAccepted {
		return ErrAlreadyFriends
	}
	return ErrRequestPending
}

func (s *PostgresStore) Accept(ctx context.Context, now time.Time, addresseeID, requesterID string) (Friendship, error) {
	addresseeID, requesterID, err := validatePair(addresseeID, requesterID)
	if err != nil {
		return Friendship{}, err
	}
	lo, hi := normalizePair(addresseeID, requesterID)

	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		    SET status = $1, accepted_at = $2
		  WHERE user_lo = $3 AND user_hi = $4
		    AND status = $5
		    AND requester_id = $6
		  RETURNING `+friendshipColumns,
		StatusAccepted, now, lo, hi, StatusPending, requesterID,
	)
	f, err := scanFriendship(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Friendship{}, ErrNotFound
		}
		return Friendship{}, err
	}
	return f, nil
}

func (s *PostgresStore) DeletePending(ctx context.Context, userID, otherID string) error {
	return s.deleteWithStatus(ctx, userID, otherID, StatusPending)
}

func (s *PostgresStore) RemoveFriend(ctx context.Context, userID, otherID string) error {
	return s.deleteWithStatus(ctx, userID, otherID, StatusAccepted)
}

func (s *PostgresStore) deleteWithStatus(ctx context.Context, userID, otherID, status string) error {
	userID, otherID, err := validatePair(userID, otherID)
	if err != nil {
		return err
	}
	lo, hi := normalizePair(userID, otherID)

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE user_lo = $1 AND user_hi = $2 AND status = $3`,
		lo, hi, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListFriends(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx,
		`SELECT CASE WHEN user_lo = $1 THEN user_hi ELSE user_lo END
		   FROM `+s.table()+`
		  WHERE (user_lo = $1 OR user_hi = $1) AND status = $2
		  ORDER BY 1`,
		userID, StatusAccepted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListPending(ctx context.Context, userID string) ([]Friendship, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+friendshipColumns+`
		   FROM `+s.table()+`
		  WHERE (user_lo = $1 OR user_hi = $1) AND status = $2
		  ORDER BY created_at, user_lo, user_hi`,
		userID, StatusPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	userA, userB, err := validatePair(userA, userB)
	if err != nil {
		if errors.Is(err, ErrSelfRequest) {
			return false, nil
		}
		return false, err
	}
	lo, hi := normalizePair(userA, userB)

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+s.table()+`
		    WHERE user_lo = $1 AND user_hi = $2 AND status = $3
		 )`,
		lo, hi, StatusAccepted,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func scanFriendship(row pgx.Row) (Friendship, error) {
	var f Friendship
	err := row.Scan(
		&f.UserLo,
		&f.UserHi,
		&f.RequesterID,
		&f.Status,
		&f.CreatedAt,
		&f.AcceptedAt,
	)
	return f, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
