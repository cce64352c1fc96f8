package server

import (
	"net/http"

	"netnest/backend/internal/metrics"
)

// GenerateRecoveryCodes handles POST /recovery-codes. The plaintext codes are
// returned once; only hashes are stored.
func (h *Handler) GenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	codes, err := h.recovery.Generate(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	metrics.RecoveryCodesGenerated.Inc()
	respondJSON(w, http.StatusCreated, map[string]interface{}{"codes": codes})
}

// RemainingRecoveryCodes handles GET /recovery-codes/remaining.
func (h *Handler) RemainingRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	n, err := h.recovery.Remaining(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"remaining": n})
}
