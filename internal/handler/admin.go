package handler

import (
	"net/http"

	"restobar-be/internal/access"
)

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin cajero cocinero mesero usuario"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	profiles, err := h.users.ListProfiles(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// UpdateUserRole takes effect for the target user on their next profile
// fetch; open sessions are not notified.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "userID")
	if !ok {
		return
	}
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := access.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	profile, err := h.users.UpdateUserRole(r.Context(), p, id, role)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
