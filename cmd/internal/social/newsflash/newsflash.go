// Package newsflash manages short posts shared with friends or a group.
//
// Every stored newsflash gets a monotonically increasing sequence number
// used for pagination. Deletion is a soft delete; deleted posts never
// appear in any listing.
package newsflash

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentRunes bounds newsflash content length, counted in runes.
const MaxContentRunes = 280

const (
	// TargetFriends shares the post with the author's friends.
	TargetFriends = "friends"
	// TargetGroup shares the post with members of one group.
	TargetGroup = "group"
)

var (
	ErrInvalidInput   = errors.New("newsflash: invalid input")
	ErrContentTooLong = errors.New("newsflash: content too long")
	ErrNotFound       = errors.New("newsflash: not found")
	ErrNotAuthor      = errors.New("newsflash: not the author")
	ErrNotMember      = errors.New("newsflash: not a group member")
)

// Newsflash is one post.
type Newsflash struct {
	ID         string
	Seq        int64
	AuthorID   string
	Content    string
	TargetType string
	GroupID    string // set only when TargetType is TargetGroup
	ClientRef  string // caller-supplied idempotency key, may be empty
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// AppendInput describes a post to store.
type AppendInput struct {
	AuthorID   string
	Content    string
	TargetType string
	GroupID    string
	ClientRef  string
}

// Page selects a result window. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

func (p Page) clamp() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.Limit }

// Store persists newsflashes.
//
// Append is idempotent over (author, client ref): re-appending with the
// same non-empty ClientRef returns the already stored post instead of
// duplicating it. Listings return newest first (descending seq) and skip
// soft-deleted rows.
type Store interface {
	Append(ctx context.Context, now time.Time, in AppendInput) (Newsflash, error)
	GetByID(ctx context.Context, id string) (Newsflash, error)
	SoftDelete(ctx context.Context, now time.Time, id, authorID string) error
	ListFeed(ctx context.Context, authorIDs []string, page Page) ([]Newsflash, error)
	ListByAuthor(ctx context.Context, authorID string, targets []string, page Page) ([]Newsflash, error)
	ListByGroup(ctx context.Context, groupID string, page Page) ([]Newsflash, error)
}

func validateAppend(in AppendInput) (AppendInput, error) {
	in.AuthorID = strings.TrimSpace(in.AuthorID)
	in.Content = strings.TrimSpace(in.Content)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.ClientRef = strings.TrimSpace(in.ClientRef)

	if in.AuthorID == "" || in.Content == "" {
		return in, ErrInvalidInput
	}
	if utf8.RuneCountInString(in.Content) > MaxContentRunes {
		return in, ErrContentTooLong
	}
	switch in.TargetType {
	case TargetFriends:
		if in.GroupID != "" {
			return in, ErrInvalidInput
		}
	case TargetGroup:
		if in.GroupID == "" {
			return in, ErrInvalidInput
		}
	default:
		return in, ErrInvalidInput
	}
	return in, nil
}
