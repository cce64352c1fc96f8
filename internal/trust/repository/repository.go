package repository

import (
	"context"

	"netnest/backend/internal/trust/domain"
)

// Repository defines persistence for trusted devices.
type Repository interface {
	Create(ctx context.Context, d *domain.Device) error
	// GetByID returns the device for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	// GetByUserAndToken returns the device matching both the user and the
	// presented bearer token, or nil if not found.
	GetByUserAndToken(ctx context.Context, userID, token string) (*domain.Device, error)
	// ListByUser returns the user's trusted devices, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Device, error)
	Delete(ctx context.Context, id string) error
}
