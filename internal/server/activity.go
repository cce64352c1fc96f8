package server

import (
	"net/http"
	"strconv"
	"time"

	"netnest/backend/internal/activity/domain"
	activityrepo "netnest/backend/internal/activity/repository"
)

type activityEntryPayload struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	EventType   string         `json:"event_type"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	UserAgent   string         `json:"user_agent"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ListActivity handles GET /admin/activity with optional user_id, event_type,
// search, limit and offset query parameters.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := activityrepo.Filter{
		UserID: q.Get("user_id"),
		Search: q.Get("search"),
		Limit:  parseInt32(q.Get("limit"), 50),
		Offset: parseInt32(q.Get("offset"), 0),
	}
	if et := q.Get("event_type"); et != "" {
		t := domain.EventType(et)
		if !t.Valid() {
			respondError(w, http.StatusBadRequest, "unknown event type")
			return
		}
		f.EventType = t
	}

	entries, err := h.activity.List(r.Context(), f)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]activityEntryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityEntryPayload{
			ID:          e.ID,
			UserID:      e.UserID,
			EventType:   string(e.EventType),
			Label:       e.EventType.Label(),
			Description: e.Description,
			UserAgent:   e.UserAgent,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": out})
}

func parseInt32(s string, def int32) int32 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}
