package server

import (
	"errors"
	"net/http"
	"time"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/login"
	"netnest/backend/internal/metrics"
	"netnest/backend/internal/provider"
)

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"`
	User         userPayload `json:"user"`
}

type loginResponse struct {
	MFARequired   bool            `json:"mfa_required"`
	TrustedBypass bool            `json:"trusted_bypass,omitempty"`
	Session       *sessionPayload `json:"session"`
}

func toSessionPayload(s *provider.Session) *sessionPayload {
	if s == nil {
		return nil
	}
	p := &sessionPayload{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         userPayload{ID: s.User.ID, Email: s.User.Email},
	}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		p.ExpiresAt = &t
	}
	return p
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.login.Login(r.Context(), login.Input{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, login.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failed").Inc()
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.serverError(w, r, err)
		return
	}

	switch {
	case res.MFARequired:
		metrics.LoginsTotal.WithLabelValues("mfa_required").Inc()
	case res.TrustedBypass:
		metrics.LoginsTotal.WithLabelValues("trusted_bypass").Inc()
	default:
		metrics.LoginsTotal.WithLabelValues("completed").Inc()
	}

	respondJSON(w, http.StatusOK, loginResponse{
		MFARequired:   res.MFARequired,
		TrustedBypass: res.TrustedBypass,
		Session:       toSessionPayload(res.Session),
	})
}

// VerifyTOTP handles POST /auth/verify-totp for a pending login.
func (h *Handler) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	h.verifySecondFactor(w, r, "totp")
}

// VerifyRecovery handles POST /auth/verify-recovery for a pending login.
func (h *Handler) VerifyRecovery(w http.ResponseWriter, r *http.Request) {
	h.verifySecondFactor(w, r, "recovery")
}

func (h *Handler) verifySecondFactor(w http.ResponseWriter, r *http.Request, method string) {
	id, _ := IdentityFromContext(r.Context())
	var req struct {
		Code           string `json:"code"`
		RememberDevice bool   `json:"remember_device"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	in := login.VerifyInput{
		UserID:         id.UserID,
		AccessToken:    id.Token,
		Code:           req.Code,
		RememberDevice: req.RememberDevice,
		UserAgent:      r.UserAgent(),
	}

	var (
		res *login.Result
		err error
	)
	if method == "totp" {
		res, err = h.login.VerifyTOTP(r.Context(), in)
	} else {
		res, err = h.login.VerifyRecovery(r.Context(), in)
	}
	if err != nil {
		switch {
		case errors.Is(err, login.ErrInvalidCode):
			respondError(w, http.StatusBadRequest, "invalid code format")
		case errors.Is(err, login.ErrVerificationFailed):
			metrics.VerificationsTotal.WithLabelValues(method, "failed").Inc()
			respondError(w, http.StatusUnauthorized, "verification failed")
		case errors.Is(err, login.ErrNoFactor):
			respondError(w, http.StatusConflict, "no enrolled factor")
		default:
			h.serverError(w, r, err)
		}
		return
	}

	metrics.VerificationsTotal.WithLabelValues(method, "success").Inc()
	if req.RememberDevice {
		metrics.TrustedDevicesIssued.Inc()
	}
	respondJSON(w, http.StatusOK, loginResponse{Session: toSessionPayload(res.Session)})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	if err := h.provider.SignOut(r.Context(), id.Token); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.recorder.Record(r.Context(), id.UserID, activitydomain.EventLogout, "Logged out", nil)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
