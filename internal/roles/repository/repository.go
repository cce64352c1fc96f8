package repository

import (
	"context"

	"netnest/backend/internal/roles/domain"
)

// Repository defines persistence for role assignments.
type Repository interface {
	// HasRole reports whether the user holds the role.
	HasRole(ctx context.Context, userID string, role domain.Role) (bool, error)
	// ListByUser returns all of the user's role assignments.
	ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error)
	// Grant persists the assignment. Granting a role the user already holds
	// is a no-op.
	Grant(ctx context.Context, a *domain.Assignment) error
	// Revoke removes the role from the user. Revoking a role the user does
	// not hold is a no-op.
	Revoke(ctx context.Context, userID string, role domain.Role) error
}
