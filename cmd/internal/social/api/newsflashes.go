package socialapi

import (
	"net/http"
	"time"

	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
)

func (h *Handler) handleCreateNewsflash(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createNewsflashRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	n, err := h.posts.Create(r.Context(), time.Now().UTC(), newsflash.AppendInput{
		AuthorID:   userID,
		Content:    req.Content,
		TargetType: req.TargetType,
		GroupID:    req.GroupID,
		ClientRef:  req.ClientRef,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, toNewsflashResponse(n))
}

func (h *Handler) handleDeleteNewsflash(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.posts.Delete(r.Context(), time.Now().UTC(), id, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.Feed(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toNewsflashesResponse(posts))
}

func (h *Handler) handleNewsflashesByAuthor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	authorID := r.PathValue("userID")
	posts, err := h.posts.ByAuthor(r.Context(), userID, authorID, pageFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusOK, toNewsflashesResponse(posts))
}
