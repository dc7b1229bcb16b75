package socialapi

import (
	"net/http"
	"time"

	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
	"github.com/OmerEfron/friend-lines-server/cmd/identity"
)

func (h *Handler) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req friendshipTargetRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	// Reject requests to unknown users up front.
	if _, err := h.users.GetUserByID(r.Context(), req.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	f, err := h.friends.Request(r.Context(), time.Now().UTC(), userID, req.UserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, toFriendRequestResponse(f))
}

func (h *Handler) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req friendshipTargetRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	f, err := h.friends.Accept(r.Context(), time.Now().UTC(), userID, req.UserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toFriendRequestResponse(f))
}

func (h *Handler) handleDeclineRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req friendshipTargetRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if err := h.friends.DeletePending(r.Context(), userID, req.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	other := r.PathValue("userID")
	if err := h.friends.RemoveFriend(r.Context(), userID, other); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ids, err := h.friends.ListFriends(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]userSummary, 0, len(ids))
	for _, id := range ids {
		u, err := h.users.GetUserByID(r.Context(), id)
		if err != nil {
			if identity.IsNotFound(err) {
				continue
			}
			h.writeDomainError(w, err)
			return
		}
		out = append(out, toUserSummary(u))
	}

	authapi.WriteJSON(w, http.StatusOK, usersResponse{Users: out})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	pending, err := h.friends.ListPending(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]friendRequestResponse, 0, len(pending))
	for _, f := range pending {
		out = append(out, toFriendRequestResponse(f))
	}

	authapi.WriteJSON(w, http.StatusOK, friendRequestsResponse{Requests: out})
}
