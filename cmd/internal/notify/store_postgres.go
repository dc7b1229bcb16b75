package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmerEfron/friend-lines-server/cmd/identity/ids"
)

// PostgresStore implements Store over PostgreSQL. The pool is owned by the
// caller and must not be closed here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("notify: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "friendlines"
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "device_tokens"}.Sanitize()
}

const deviceTokenColumns = `id, user_id, token, platform, active, created_at, updated_at`

func (s *PostgresStore) Upsert(ctx context.Context, now time.Time, userID, token, platform string) (DeviceToken, error) {
	userID, token, platform, err := validateUpsert(userID, token, platform)
	if err != nil {
		return DeviceToken{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return DeviceToken{}, err
	}

	// The token value is the conflict key: re-registration moves the
	// token to the registering user and reactivates it.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (id, user_id, token, platform, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		 ON CONFLICT (token) DO UPDATE
		    SET user_id = EXCLUDED.user_id,
		        platform = EXCLUDED.platform,
		        active = TRUE,
		        updated_at = EXCLUDED.updated_at
		 RETURNING `+deviceTokenColumns,
		id, userID, token, platform, now,
	)
	return scanDeviceToken(row)
}

func (s *PostgresStore) Deactivate(ctx context.Context, now time.Time, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+`
		    SET active = FALSE, updated_at = $1
		  WHERE user_id = $2 AND token = $3 AND active`,
		now, userID, token,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ActiveForUsers(ctx context.Context, userIDs []string) ([]DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+deviceTokenColumns+` FROM `+s.table()+`
		  WHERE user_id = ANY($1) AND active
		  ORDER BY user_id, id`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeviceToken
	for rows.Next() {
		d, err := scanDeviceToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDeviceToken(row pgx.Row) (DeviceToken, error) {
	var d DeviceToken
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Token,
		&d.Platform,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
