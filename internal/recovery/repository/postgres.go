package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"netnest/backend/internal/recovery/domain"
)

// PostgresRepository persists recovery codes in the recovery_codes table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a recovery code repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// DeleteByUser removes all codes for userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id = $1`, userID)
	return err
}

// CreateBatch inserts codes in a single transaction; either the whole batch
// is stored or none of it.
func (r *PostgresRepository) CreateBatch(ctx context.Context, codes []*domain.RecoveryCode) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	const q = `
		INSERT INTO recovery_codes (id, user_id, code_hash, used, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	for _, c := range codes {
		if _, err := tx.ExecContext(ctx, q, c.ID, c.UserID, c.CodeHash, c.Used, c.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountUnused returns the number of unused codes for userID.
func (r *PostgresRepository) CountUnused(ctx context.Context, userID string) (int64, error) {
	var count int64
	const q = `SELECT COUNT(*) FROM recovery_codes WHERE user_id = $1 AND used = FALSE`
	if err := r.db.GetContext(ctx, &count, q, userID); err != nil {
		return 0, err
	}
	return count, nil
}

// Consume marks the matching unused code as used with the current timestamp.
// The WHERE clause is scoped to used = FALSE so the update is a
// compare-and-swap: of two concurrent requests spending the same code,
// exactly one sees a row affected.
func (r *PostgresRepository) Consume(ctx context.Context, userID, codeHash string) (bool, error) {
	const q = `
		UPDATE recovery_codes
		SET used = TRUE, used_at = $3
		WHERE user_id = $1 AND code_hash = $2 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, q, userID, codeHash, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
