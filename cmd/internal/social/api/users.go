package socialapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
)

func (h *Handler) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_request", "q is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	users, err := h.users.SearchUsers(r.Context(), identity.SearchUsersInput{
		Query:  q,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	authapi.WriteJSON(w, http.StatusOK, usersResponse{Users: out})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), identity.UpdateProfileInput{
		UserID:   userID,
		FullName: req.FullName,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toUserSummary(u))
}
