package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type trustedDevicePayload struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type deviceSessionPayload struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	IsCurrent  bool      `json:"is_current"`
	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListTrustedDevices handles GET /trusted-devices. The bearer token mirrored
// client-side is never serialized.
func (h *Handler) ListTrustedDevices(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	devices, err := h.trust.List(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]trustedDevicePayload, 0, len(devices))
	for _, d := range devices {
		out = append(out, trustedDevicePayload{
			ID:         d.ID,
			DeviceName: d.DeviceName,
			Browser:    d.Browser,
			OS:         d.OS,
			CreatedAt:  d.CreatedAt,
			ExpiresAt:  d.ExpiresAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"devices": out})
}

// RevokeTrustedDevice handles DELETE /trusted-devices/{id}. Only the caller's
// own devices are reachable; anything else is a 404.
func (h *Handler) RevokeTrustedDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	deviceID := mux.Vars(r)["id"]

	devices, err := h.trust.List(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	owned := false
	for _, d := range devices {
		if d.ID == deviceID {
			owned = true
			break
		}
	}
	if !owned {
		respondError(w, http.StatusNotFound, "trusted device not found")
		return
	}
	if err := h.trust.Revoke(r.Context(), deviceID); err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "trusted device removed"})
}

// TrackDeviceSession handles POST /device-sessions/track, upserting the
// calling browser's session record.
func (h *Handler) TrackDeviceSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	s, err := h.sessions.Track(r.Context(), id.UserID, r.UserAgent())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deviceSessionPayload{
		ID:         s.ID,
		DeviceName: s.DeviceName,
		DeviceType: s.DeviceType,
		Browser:    s.Browser,
		OS:         s.OS,
		IsCurrent:  s.IsCurrent,
		LastActive: s.LastActive,
		CreatedAt:  s.CreatedAt,
	})
}

// ListDeviceSessions handles GET /device-sessions.
func (h *Handler) ListDeviceSessions(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	sessions, err := h.sessions.List(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]deviceSessionPayload, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, deviceSessionPayload{
			ID:         s.ID,
			DeviceName: s.DeviceName,
			DeviceType: s.DeviceType,
			Browser:    s.Browser,
			OS:         s.OS,
			IsCurrent:  s.IsCurrent,
			LastActive: s.LastActive,
			CreatedAt:  s.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

// RemoveDeviceSession handles DELETE /device-sessions/{id}. Only the caller's
// own sessions are reachable.
func (h *Handler) RemoveDeviceSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	sessionID := mux.Vars(r)["id"]

	sessions, err := h.sessions.List(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	owned := false
	for _, s := range sessions {
		if s.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		respondError(w, http.StatusNotFound, "device session not found")
		return
	}
	if err := h.sessions.Remove(r.Context(), sessionID); err != nil {
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "device session removed"})
}
