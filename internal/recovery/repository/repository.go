package repository

import (
	"context"

	"netnest/backend/internal/recovery/domain"
)

// Repository defines persistence for recovery codes.
type Repository interface {
	// DeleteByUser removes every code for the user, used and unused alike.
	// Called before inserting a fresh batch so old codes cannot overlap new ones.
	DeleteByUser(ctx context.Context, userID string) error
	// CreateBatch inserts the given codes. All codes must belong to one user.
	CreateBatch(ctx context.Context, codes []*domain.RecoveryCode) error
	// CountUnused returns the number of not-yet-consumed codes for the user.
	CountUnused(ctx context.Context, userID string) (int64, error)
	// Consume atomically marks the unused code matching (userID, codeHash) as
	// used. Returns false when no unused code matched, without distinguishing
	// "wrong code" from "already used". The update must be conditional on the
	// row still being unused so a code cannot be double-spent under
	// concurrent requests.
	Consume(ctx context.Context, userID, codeHash string) (bool, error)
}
