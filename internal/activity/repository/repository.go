package repository

import (
	"context"

	"netnest/backend/internal/activity/domain"
)

// Filter narrows an activity log listing. Zero values mean "no constraint".
type Filter struct {
	UserID    string
	EventType domain.EventType
	// Search is matched case-insensitively against the description.
	Search string
	Limit  int32
	Offset int32
}

// Repository defines persistence for activity log entries. The log is
// append-only; there are no update or delete operations.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	// List returns entries matching f, newest first.
	List(ctx context.Context, f Filter) ([]*domain.Entry, error)
	// CountByUser returns the number of entries for the given user.
	CountByUser(ctx context.Context, userID string) (int64, error)
}
