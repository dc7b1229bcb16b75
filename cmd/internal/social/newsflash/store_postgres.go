package newsflash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmerEfron/friend-lines-server/cmd/identity/ids"
)

// PostgresStore implements Store over PostgreSQL. Seq comes from the
// table's BIGSERIAL column. The pool is owned by the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("newsflash: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "friendlines"
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "newsflashes"}.Sanitize()
}

const newsflashColumns = `id, seq, author_id, content, target_type, group_id, client_ref, created_at, deleted_at`

func (s *PostgresStore) Append(ctx context.Context, now time.Time, in AppendInput) (Newsflash, error) {
	in, err := validateAppend(in)
	if err != nil {
		return Newsflash{}, err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Newsflash{}, err
	}

	var groupID, clientRef *string
	if in.GroupID != "" {
		groupID = &in.GroupID
	}
	if in.ClientRef != "" {
		clientRef = &in.ClientRef
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (id, author_id, content, target_type, group_id, client_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+newsflashColumns,
		id, in.AuthorID, in.Content, in.TargetType, groupID, clientRef, now,
	)
	n, err := scanNewsflash(row)
	if err != nil {
		if isUniqueViolation(err) && in.ClientRef != "" {
			// Idempotent replay: hand back the original post.
			return s.getByClientRef(ctx, in.AuthorID, in.ClientRef)
		}
		return Newsflash{}, err
	}
	return n, nil
}

func (s *PostgresStore) getByClientRef(ctx context.Context, authorID, clientRef string) (Newsflash, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+newsflashColumns+` FROM `+s.table()+`
		  WHERE author_id = $1 AND client_ref = $2`,
		authorID, clientRef,
	)
	n, err := scanNewsflash(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Newsflash{}, ErrNotFound
		}
		return Newsflash{}, err
	}
	return n, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Newsflash, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Newsflash{}, ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+newsflashColumns+` FROM `+s.table()+`
		  WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	n, err := scanNewsflash(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Newsflash{}, ErrNotFound
		}
		return Newsflash{}, err
	}
	return n, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, now time.Time, id, authorID string) error {
	id = strings.TrimSpace(id)
	authorID = strings.TrimSpace(authorID)
	if id == "" || authorID == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rowAuthor string
	err := s.pool.QueryRow(ctx,
		`SELECT author_id FROM `+s.table()+` WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(&rowAuthor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if rowAuthor != authorID {
		return ErrNotAuthor
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+` SET deleted_at = $1
		  WHERE id = $2 AND author_id = $3 AND deleted_at IS NULL`,
		now, id, authorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListFeed(ctx context.Context, authorIDs []string, page Page) ([]Newsflash, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	page = page.clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+newsflashColumns+` FROM `+s.table()+`
		  WHERE author_id = ANY($1)
		    AND target_type = $2
		    AND deleted_at IS NULL
		  ORDER BY seq DESC
		  LIMIT $3 OFFSET $4`,
		authorIDs, TargetFriends, page.Limit, page.offset(),
	)
	if err != nil {
		return nil, err
	}
	return collectNewsflashes(rows)
}

func (s *PostgresStore) ListByAuthor(ctx context.Context, authorID string, targets []string, page Page) ([]Newsflash, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, ErrInvalidInput
	}
	if len(targets) == 0 {
		return nil, nil
	}
	page = page.clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+newsflashColumns+` FROM `+s.table()+`
		  WHERE author_id = $1
		    AND target_type = ANY($2)
		    AND deleted_at IS NULL
		  ORDER BY seq DESC
		  LIMIT $3 OFFSET $4`,
		authorID, targets, page.Limit, page.offset(),
	)
	if err != nil {
		return nil, err
	}
	return collectNewsflashes(rows)
}

func (s *PostgresStore) ListByGroup(ctx context.Context, groupID string, page Page) ([]Newsflash, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	page = page.clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+newsflashColumns+` FROM `+s.table()+`
		  WHERE group_id = $1
		    AND target_type = $2
		    AND deleted_at IS NULL
		  ORDER BY seq DESC
		  LIMIT $3 OFFSET $4`,
		groupID, TargetGroup, page.Limit, page.offset(),
	)
	if err != nil {
		return nil, err
	}
	return collectNewsflashes(rows)
}

func collectNewsflashes(rows pgx.Rows) ([]Newsflash, error) {
	defer rows.Close()
	var out []Newsflash
	for rows.Next() {
		n, err := scanNewsflash(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNewsflash(row pgx.Row) (Newsflash, error) {
	var n Newsflash
	var groupID, clientRef *string
	err := row.Scan(
		&n.ID,
		&n.Seq,
		&n.AuthorID,
		&n.Content,
		&n.TargetType,
		&groupID,
		&clientRef,
		&n.CreatedAt,
		&n.DeletedAt,
	)
	if groupID != nil {
		n.GroupID = *groupID
	}
	if clientRef != nil {
		n.ClientRef = *clientRef
	}
	return n, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
