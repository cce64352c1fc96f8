package repository

import (
	"context"
	"time"

	"netnest/backend/internal/devicesession/domain"
)

// Repository defines persistence for device sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// ListByUser returns the user's sessions ordered by last_active descending.
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	// Touch updates last_active and marks the session current.
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
