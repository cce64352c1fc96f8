package server

import (
	"net/http"
	"strings"

	activitydomain "netnest/backend/internal/activity/domain"
)

// UpdatePassword handles PUT /account/password.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if err := h.provider.UpdatePassword(r.Context(), id.Token, req.NewPassword); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.recorder.Record(r.Context(), id.UserID, activitydomain.EventPasswordChanged, "Password changed", nil)
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// UpdateEmail handles PUT /account/email.
func (h *Handler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		NewEmail string `json:"new_email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.NewEmail)
	if email == "" || !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err := h.provider.UpdateEmail(r.Context(), id.Token, email); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.recorder.Record(r.Context(), id.UserID, activitydomain.EventEmailChanged, "Email changed", nil)
	respondJSON(w, http.StatusOK, map[string]string{"message": "email updated"})
}
