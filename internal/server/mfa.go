package server

import (
	"errors"
	"net/http"

	"netnest/backend/internal/enrollment"
)

type factorPayload struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	FriendlyName string `json:"friendly_name,omitempty"`
	Status       string `json:"status"`
	Secret       string `json:"secret,omitempty"`
	URI          string `json:"uri,omitempty"`
}

// EnrollStart handles POST /mfa/enroll. The response includes the shared
// secret and otpauth URI for QR display; they are never returned again.
func (h *Handler) EnrollStart(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	f, err := h.enrollment.Start(r.Context(), id.Token)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, factorPayload{
		ID:           f.ID,
		Type:         f.Type,
		FriendlyName: f.FriendlyName,
		Status:       f.Status,
		Secret:       f.Secret,
		URI:          f.URI,
	})
}

// EnrollConfirm handles POST /mfa/confirm. On success the returned session is
// at aal2 and the factor is verified.
func (h *Handler) EnrollConfirm(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		FactorID string `json:"factor_id"`
		Code     string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FactorID == "" {
		respondError(w, http.StatusBadRequest, "factor_id is required")
		return
	}
	sess, err := h.enrollment.Confirm(r.Context(), id.UserID, id.Token, req.FactorID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrInvalidCode):
			respondError(w, http.StatusBadRequest, "code must be 6 digits")
		case errors.Is(err, enrollment.ErrVerificationFailed):
			respondError(w, http.StatusUnauthorized, "verification failed")
		default:
			h.serverError(w, r, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Session: toSessionPayload(sess)})
}

// EnrollCancel handles POST /mfa/cancel, abandoning a pending enrollment.
func (h *Handler) EnrollCancel(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		FactorID string `json:"factor_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FactorID == "" {
		respondError(w, http.StatusBadRequest, "factor_id is required")
		return
	}
	if err := h.enrollment.Cancel(r.Context(), id.Token, req.FactorID); err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "enrollment cancelled"})
}

// MFADisable handles POST /mfa/disable, removing the verified factor.
func (h *Handler) MFADisable(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	if err := h.enrollment.Disable(r.Context(), id.UserID, id.Token); err != nil {
		if errors.Is(err, enrollment.ErrNoFactor) {
			respondError(w, http.StatusNotFound, "no enrolled factor")
			return
		}
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "two-factor authentication disabled"})
}
