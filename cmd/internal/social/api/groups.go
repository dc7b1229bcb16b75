package socialapi

import (
	"net/http"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
)

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	g, err := h.groups.Create(r.Context(), time.Now().UTC(), userID, req.Name)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, toGroupResponse(g))
}

func (h *Handler) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	groups, err := h.groups.GroupsFor(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	authapi.WriteJSON(w, http.StatusOK, groupsResponse{Groups: out})
}

func (h *Handler) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	invs, err := h.groups.InvitationsFor(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]invitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, invitationResponse{
			GroupID:   inv.GroupID,
			GroupName: inv.GroupName,
			InviterID: inv.InviterID,
			CreatedAt: inv.CreatedAt,
		})
	}
	authapi.WriteJSON(w, http.StatusOK, invitationsResponse{Invitations: out})
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	groupID := r.PathValue("groupID")

	var req inviteRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if _, err := h.users.GetUserByID(r.Context(), req.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	inv, err := h.groups.Invite(r.Context(), time.Now().UTC(), groupID, userID, req.UserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, invitationResponse{
		GroupID:   inv.GroupID,
		GroupName: inv.GroupName,
		InviterID: inv.InviterID,
		CreatedAt: inv.CreatedAt,
	})
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	groupID := r.PathValue("groupID")

	if err := h.groups.AcceptInvitation(r.Context(), time.Now().UTC(), groupID, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	groupID := r.PathValue("groupID")

	if err := h.groups.Leave(r.Context(), groupID, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	groupID := r.PathValue("groupID")

	// Membership list is for members only.
	member, err := h.groups.IsMember(r.Context(), groupID, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !member {
		authapi.WriteError(w, http.StatusForbidden, "not_member", "not a group member")
		return
	}

	ids, err := h.groups.Members(r.Context(), groupID)
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
	authapi.WriteJSON(w, http.StatusOK, membersResponse{Members: out})
}

func (h *Handler) handleGroupNewsflashes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	groupID := r.PathValue("groupID")

	posts, err := h.posts.ByGroup(r.Context(), userID, groupID, pageFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toNewsflashesResponse(posts))
}
