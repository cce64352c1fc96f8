package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/roles"
	rolesdomain "netnest/backend/internal/roles/domain"
)

type roleAssignmentPayload struct {
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRoles handles GET /admin/users/{id}/roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]
	assignments, err := h.roles.ListByUser(r.Context(), targetID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]roleAssignmentPayload, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, roleAssignmentPayload{Role: string(a.Role), CreatedAt: a.CreatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"roles": out})
}

// GrantRole handles POST /admin/users/{id}/roles.
func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFromContext(r.Context())
	targetID := mux.Vars(r)["id"]
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.roles.Grant(r.Context(), actor.UserID, targetID, rolesdomain.Role(req.Role))
	if err != nil {
		if errors.Is(err, roles.ErrInvalidRole) {
			respondError(w, http.StatusBadRequest, "invalid role")
			return
		}
		h.serverError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "role granted"})
}

// RevokeRole handles DELETE /admin/users/{id}/roles/{role}.
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFromContext(r.Context())
	vars := mux.Vars(r)
	err := h.roles.Revoke(r.Context(), actor.UserID, vars["id"], rolesdomain.Role(vars["role"]))
	if err != nil {
		switch {
		case errors.Is(err, roles.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "invalid role")
		case errors.Is(err, roles.ErrSelfDemotion):
			respondError(w, http.StatusForbidden, "admins cannot remove their own admin role")
		default:
			h.serverError(w, r, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "role revoked"})
}

// StatusChanged handles POST /admin/status-events. It records the status
// transition and, when a phone number is given and SMS is configured, fires
// the customer notification without waiting on it.
func (h *Handler) StatusChanged(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFromContext(r.Context())
	var req struct {
		CustomerName string `json:"customer_name"`
		Status       string `json:"status"`
		Phone        string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CustomerName == "" || req.Status == "" {
		respondError(w, http.StatusBadRequest, "customer_name and status are required")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, activitydomain.EventStatusChanged,
		fmt.Sprintf("Changed connection status for %s to %s", req.CustomerName, req.Status),
		map[string]any{"customer_name": req.CustomerName, "status": req.Status})

	if req.Phone != "" && h.notify != nil {
		h.notify.SendAsync(req.Phone,
			fmt.Sprintf("Dear %s, your connection status is now %s.", req.CustomerName, req.Status))
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "status change recorded"})
}

// EmployeeAdded handles POST /admin/employees, recording the staffing event.
func (h *Handler) EmployeeAdded(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFromContext(r.Context())
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	h.roles.RecordEmployeeAdded(r.Context(), actor.UserID, req.Name)
	respondJSON(w, http.StatusCreated, map[string]string{"message": "employee recorded"})
}

// EmployeeRemoved handles DELETE /admin/employees/{name}.
func (h *Handler) EmployeeRemoved(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFromContext(r.Context())
	name := mux.Vars(r)["name"]
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	h.roles.RecordEmployeeRemoved(r.Context(), actor.UserID, name)
	respondJSON(w, http.StatusOK, map[string]string{"message": "employee removal recorded"})
}
