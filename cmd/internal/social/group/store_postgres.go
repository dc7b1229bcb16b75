package group

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

// PostgresStore implements Store over PostgreSQL. The pool is owned by the
// caller and must not be closed here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("group: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "friendlines"
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

func (s *PostgresStore) ident(table string) string {
	return pgx.Identifier{s.schema, table}.Sanitize()
}

const groupColumns = `id, name, creator_id, created_at`

func (s *PostgresStore) Create(ctx context.Context, now time.Time, creatorID, name string) (Group, error) {
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

	groupID, err := ids.NewULID(now)
	if err != nil {
		return Group{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.ident("groups")+` (id, name, name_norm, creator_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		groupID, name, normalizeGroupName(name), creatorID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Group{}, ErrNameTaken
		}
		return Group{}, err
	}

	// Creator is the first member.
	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.ident("group_members")+` (group_id, user_id, joined_at)
		 VALUES ($1, $2, $3)`,
		groupID, creatorID, now,
	)
	if err != nil {
		return Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}

	return Group{ID: groupID, Name: name, CreatorID: creatorID, CreatedAt: now}, nil
}

func (s *PostgresStore) Get(ctx context.Context, groupID string) (Group, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return Group{}, ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM `+s.ident("groups")+` WHERE id = $1`, groupID)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}
	return g, nil
}

func (s *PostgresStore) Invite(ctx context.Context, now time.Time, groupID, inviterID, inviteeID string) (Invitation, error) {
	groupID = strings.TrimSpace(groupID)
	inviterID = strings.TrimSpace(inviterID)
	inviteeID = strings.TrimSpace(inviteeID)
	if groupID == "" || inviterID == "" || inviteeID == "" || inviterID == inviteeID {
		return Invitation{}, ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	g, err := s.Get(ctx, groupID)
	if err != nil {
		return Invitation{}, err
	}

	ok, err := s.IsMember(ctx, groupID, inviterID)
	if err != nil {
		return Invitation{}, err
	}
	if !ok {
		return Invitation{}, ErrNotMember
	}

	ok, err = s.IsMember(ctx, groupID, inviteeID)
	if err != nil {
		return Invitation{}, err
	}
	if ok {
		return Invitation{}, ErrAlreadyMember
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.ident("group_invitations")+` (group_id, invitee_id, inviter_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		groupID, inviteeID, inviterID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Invitation{}, ErrInvitePending
		}
		return Invitation{}, err
	}

	return Invitation{
		GroupID:   groupID,
		GroupName: g.Name,
		InviteeID: inviteeID,
		InviterID: inviterID,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) AcceptInvitation(ctx context.Context, now time.Time, groupID, inviteeID string) error {
	groupID = strings.TrimSpace(groupID)
	inviteeID = strings.TrimSpace(inviteeID)
	if groupID == "" || inviteeID == "" {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM `+s.ident("group_invitations")+`
		  WHERE group_id = $1 AND invitee_id = $2`,
		groupID, inviteeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.ident("group_members")+` (group_id, user_id, joined_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		groupID, inviteeID, now,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Leave(ctx context.Context, groupID, userID string) error {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return ErrInvalidInput
	}

	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatorID == userID {
		return ErrCreatorCannotLeave
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.ident("group_members")+`
		  WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *PostgresStore) Members(ctx context.Context, groupID string) ([]string, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM `+s.ident("group_members")+`
		  WHERE group_id = $1
		  ORDER BY joined_at, user_id`,
		groupID,
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

func (s *PostgresStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return false, ErrInvalidInput
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+s.ident("group_members")+`
		    WHERE group_id = $1 AND user_id = $2
		 )`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresStore) GroupsFor(ctx context.Context, userID string) ([]Group, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.creator_id, g.created_at
		   FROM `+s.ident("groups")+` g
		   JOIN `+s.ident("group_members")+` m ON m.group_id = g.id
		  WHERE m.user_id = $1
		  ORDER BY g.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InvitationsFor(ctx context.Context, userID string) ([]Invitation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx,
		`SELECT i.group_id, g.name, i.invitee_id, i.inviter_id, i.created_at
		   FROM `+s.ident("group_invitations")+` i
		   JOIN `+s.ident("groups")+` g ON g.id = i.group_id
		  WHERE i.invitee_id = $1
		  ORDER BY i.created_at, i.group_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.GroupID, &inv.GroupName, &inv.InviteeID, &inv.InviterID, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt)
	return g, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
