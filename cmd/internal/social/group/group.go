// Package group manages user groups, membership and invitations.
//
// Membership is invitation-only: the creator joins on creation, everyone
// else joins by accepting an invitation from an existing member.
package group

import (
	"context"
	"errors"
	"strings"
	"time"
)

const maxNameLen = 80

var (
	ErrInvalidInput       = errors.New("group: invalid input")
	ErrNotFound           = errors.New("group: not found")
	ErrNameTaken          = errors.New("group: name already used by creator")
	ErrNotMember          = errors.New("group: not a member")
	ErrAlreadyMember      = errors.New("group: already a member")
	ErrInvitePending      = errors.New("group: invitation already pending")
	ErrCreatorCannotLeave = errors.New("group: creator cannot leave")
)

// Group is a named collection of members owned by its creator.
type Group struct {
	ID        string
	Name      string
	CreatorID string
	CreatedAt time.Time
}

// Invitation is a pending offer to join a group.
type Invitation struct {
	GroupID   string
	GroupName string
	InviteeID string
	InviterID string
	CreatedAt time.Time
}

// Store persists groups, memberships and invitations.
//
// Create makes a group with the creator as its first member. The name is
// unique per creator (ErrNameTaken).
//
// Invite requires the inviter to be a member (ErrNotMember), the invitee
// not to be one (ErrAlreadyMember), and no pending invitation for the
// invitee (ErrInvitePending).
//
// AcceptInvitation consumes a pending invitation and adds the invitee as a
// member. Leave removes a member; the creator cannot leave
// (ErrCreatorCannotLeave).
type Store interface {
	Create(ctx context.Context, now time.Time, creatorID, name string) (Group, error)
	Get(ctx context.Context, groupID string) (Group, error)
	Invite(ctx context.Context, now time.Time, groupID, inviterID, inviteeID string) (Invitation, error)
	AcceptInvitation(ctx context.Context, now time.Time, groupID, inviteeID string) error
	Leave(ctx context.Context, groupID, userID string) error
	Members(ctx context.Context, groupID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	GroupsFor(ctx context.Context, userID string) ([]Group, error)
	InvitationsFor(ctx context.Context, userID string) ([]Invitation, error)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameLen {
		return "", ErrInvalidInput
	}
	return name, nil
}

// normalizeGroupName is the uniqueness key for names within one creator.
func normalizeGroupName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
