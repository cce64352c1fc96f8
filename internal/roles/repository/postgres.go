package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"netnest/backend/internal/roles/domain"
)

// PostgresRepository persists role assignments in the user_roles table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a role repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type assignmentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// HasRole reports whether the user holds the role. It returns an error only
// for database failures.
func (r *PostgresRepository) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	if err := r.db.GetContext(ctx, &exists, q, userID, string(role)); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's role assignments.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	var rows []assignmentRow
	const q = `SELECT id, user_id, role, created_at FROM user_roles WHERE user_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	out := make([]*domain.Assignment, len(rows))
	for i := range rows {
		out[i] = &domain.Assignment{
			ID: rows[i].ID, UserID: rows[i].UserID, Role: domain.Role(rows[i].Role), CreatedAt: rows[i].CreatedAt,
		}
	}
	return out, nil
}

// Grant persists the assignment. Duplicate grants are absorbed by the unique
// (user_id, role) constraint.
func (r *PostgresRepository) Grant(ctx context.Context, a *domain.Assignment) error {
	const q = `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, string(a.Role), a.CreatedAt)
	return err
}

// Revoke removes the role from the user.
func (r *PostgresRepository) Revoke(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	return err
}
