package socialapi

import (
	"net/http"
	"time"

	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
)

func (h *Handler) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	d, err := h.devices.RegisterDevice(r.Context(), time.Now().UTC(), userID, req.Token, req.Platform)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	authapi.WriteJSON(w, http.StatusCreated, toDeviceResponse(d))
}

func (h *Handler) handleDeactivateDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := authapi.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if err := h.devices.DeactivateDevice(r.Context(), time.Now().UTC(), userID, req.Token); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
