// Package friendship manages friend requests and friendships between users.
//
// A friendship is stored once per user pair, normalized so the lower user
// id always comes first. Status moves pending -> accepted; decline, cancel
// and unfriend all delete the row.
package friendship

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	// StatusPending is a request waiting for the addressee's answer.
	StatusPending = "pending"
	// StatusAccepted is an established friendship.
	StatusAccepted = "accepted"
)

var (
	ErrInvalidInput   = errors.New("friendship: invalid input")
	ErrSelfRequest    = errors.New("friendship: cannot befriend yourself")
	ErrAlreadyFriends = errors.New("friendship: already friends")
	ErrRequestPending = errors.New("friendship: request already pending")
	ErrNotFound       = errors.New("friendship: not found")
)

// Friendship is one user pair. UserLo < UserHi always holds.
type Friendship struct {
	UserLo      string
	UserHi      string
	RequesterID string
	Status      string
	CreatedAt   time.Time
	AcceptedAt  *time.Time
}

// Other returns the pair member that is not id.
func (f Friendship) Other(id string) string {
	if f.UserLo == id {
		return f.UserHi
	}
	return f.UserLo
}

// AddresseeID returns the pair member the request was sent to.
func (f Friendship) AddresseeID() string {
	return f.Other(f.RequesterID)
}

// Store persists friendships.
//
// Request creates a pending row. It fails with ErrSelfRequest when both ids
// match, ErrAlreadyFriends when an accepted row exists, and
// ErrRequestPending when a pending row exists in either direction.
//
// Accept flips a pending row to accepted. Only the addressee may accept;
// the requester accepting their own request is ErrNotFound.
//
// DeletePending removes a pending row between the two users regardless of
// direction, covering both decline (addressee) and cancel (requester).
// RemoveFriend removes an accepted row. Both return ErrNotFound when no
// matching row exists.
type Store interface {
	Request(ctx context.Context, now time.Time, requesterID, addresseeID string) (Friendship, error)
	Accept(ctx context.Context, now time.Time, addresseeID, requesterID string) (Friendship, error)
	DeletePending(ctx context.Context, userID, otherID string) error
	RemoveFriend(ctx context.Context, userID, otherID string) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
	ListPending(ctx context.Context, userID string) ([]Friendship, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// normalizePair orders a user pair so the lexically lower id comes first.
func normalizePair(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

func validatePair(requesterID, addresseeID string) (string, string, error) {
	requesterID = strings.TrimSpace(requesterID)
	addresseeID = strings.TrimSpace(addresseeID)
	if requesterID == "" || addresseeID == "" {
		return "", "", ErrInvalidInput
	}
	if requesterID == addresseeID {
		return "", "", ErrSelfRequest
	}
	return requesterID, addresseeID, nil
}
