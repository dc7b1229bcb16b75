// Package socialapi exposes friendships, groups, newsflashes and device
// registration over HTTP. Every route is auth-gated; the handler reads the
// authenticated user from the request context.
package socialapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/notify"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/friendship"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/group"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

const maxBodyBytes = 64 << 10 // 64 KiB

// Handler wires the social endpoints to their services.
type Handler struct {
	log     *slog.Logger
	users   identity.Store
	friends friendship.Store
	groups  group.Store
	posts   *newsflash.Service
	devices *notify.Service
}

func NewHandler(
	log *slog.Logger,
	users identity.Store,
	friends friendship.Store,
	groups group.Store,
	posts *newsflash.Service,
	devices *notify.Service,
) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("socialapi: nil user store")
	}
	if friends == nil {
		return nil, errors.New("socialapi: nil friendship store")
	}
	if groups == nil {
		return nil, errors.New("socialapi: nil group store")
	}
	if posts == nil {
		return nil, errors.New("socialapi: nil newsflash service")
	}
	if devices == nil {
		return nil, errors.New("socialapi: nil notify service")
	}
	return &Handler{
		log:     log,
		users:   users,
		friends: friends,
		groups:  groups,
		posts:   posts,
		devices: devices,
	}, nil
}

// Register mounts all social routes behind the given auth gate.
func (h *Handler) Register(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	if h == nil || mux == nil || gate == nil {
		return
	}
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, gate(fn))
	}

	route("GET /users/search", h.handleSearchUsers)
	route("PATCH /users/me", h.handleUpdateProfile)

	route("GET /friendships", h.handleListFriends)
	route("GET /friendships/requests", h.handleListRequests)
	route("POST /friendships/requests", h.handleSendRequest)
	route("POST /friendships/accept", h.handleAcceptRequest)
	route("POST /friendships/decline", h.handleDeclineRequest)
	route("DELETE /friendships/{userID}", h.handleRemoveFriend)

	route("POST /groups", h.handleCreateGroup)
	route("GET /groups", h.handleMyGroups)
	route("GET /groups/invitations", h.handleMyInvitations)
	route("POST /groups/{groupID}/invite", h.handleInvite)
	route("POST /groups/{groupID}/join", h.handleJoin)
	route("POST /groups/{groupID}/leave", h.handleLeave)
	route("GET /groups/{groupID}/members", h.handleMembers)
	route("GET /groups/{groupID}/newsflashes", h.handleGroupNewsflashes)

	route("POST /newsflashes", h.handleCreateNewsflash)
	route("DELETE /newsflashes/{id}", h.handleDeleteNewsflash)
	route("GET /newsflashes/by-author/{userID}", h.handleNewsflashesByAuthor)
	route("GET /feed", h.handleFeed)

	route("POST /notifications/devices", h.handleRegisterDevice)
	route("DELETE /notifications/devices", h.handleDeactivateDevice)
}

// userID pulls the authenticated user from the request context. The gate
// guarantees presence; the fallback 401 covers misconfigured wiring.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := authapi.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		authapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return "", false
	}
	return claims.UserID, true
}

// writeDomainError maps service sentinel errors onto HTTP responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friendship.ErrSelfRequest):
		authapi.WriteError(w, http.StatusBadRequest, "self_request", "cannot befriend yourself")
	case errors.Is(err, friendship.ErrAlreadyFriends):
		authapi.WriteError(w, http.StatusConflict, "already_friends", "already friends")
	case errors.Is(err, friendship.ErrRequestPending):
		authapi.WriteError(w, http.StatusConflict, "request_pending", "request already pending")
	case errors.Is(err, group.ErrNameTaken):
		authapi.WriteError(w, http.StatusConflict, "name_taken", "group name already used")
	case errors.Is(err, group.ErrAlreadyMember):
		authapi.WriteError(w, http.StatusConflict, "already_member", "already a member")
	case errors.Is(err, group.ErrInvitePending):
		authapi.WriteError(w, http.StatusConflict, "invite_pending", "invitation already pending")
	case errors.Is(err, group.ErrCreatorCannotLeave):
		authapi.WriteError(w, http.StatusConflict, "creator_cannot_leave", "the creator cannot leave the group")
	case errors.Is(err, group.ErrNotMember), errors.Is(err, newsflash.ErrNotMember):
		authapi.WriteError(w, http.StatusForbidden, "not_member", "not a group member")
	case errors.Is(err, newsflash.ErrNotAuthor):
		authapi.WriteError(w, http.StatusForbidden, "not_author", "only the author may do that")
	case errors.Is(err, newsflash.ErrContentTooLong):
		authapi.WriteError(w, http.StatusBadRequest, "content_too_long", "content too long")
	case errors.Is(err, friendship.ErrNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, newsflash.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		identity.IsNotFound(err):
		authapi.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, friendship.ErrInvalidInput),
		errors.Is(err, group.ErrInvalidInput),
		errors.Is(err, newsflash.ErrInvalidInput),
		errors.Is(err, notify.ErrInvalidInput),
		identity.IsInvalidInput(err):
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid input")
	default:
		h.log.Error("social.request.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
