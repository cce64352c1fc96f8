package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"netnest/backend/internal/devicesession/domain"
)

// PostgresRepository persists device sessions in the device_sessions table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a device session repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type sessionRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	DeviceName string    `db:"device_name"`
	DeviceType string    `db:"device_type"`
	Browser    string    `db:"browser"`
	OS         string    `db:"os"`
	IsCurrent  bool      `db:"is_current"`
	LastActive time.Time `db:"last_active"`
	CreatedAt  time.Time `db:"created_at"`
}

const sessionColumns = `id, user_id, device_name, device_type, browser, os, is_current, last_active, created_at`

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
		INSERT INTO device_sessions (id, user_id, device_name, device_type, browser, os, is_current, last_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.DeviceName, s.DeviceType, s.Browser, s.OS, s.IsCurrent, s.LastActive, s.CreatedAt)
	return err
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM device_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToSession(&row), nil
}

// ListByUser returns the user's sessions, most recently active first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	var rows []sessionRow
	const q = `SELECT ` + sessionColumns + ` FROM device_sessions WHERE user_id = $1 ORDER BY last_active DESC`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	out := make([]*domain.Session, len(rows))
	for i := range rows {
		out[i] = rowToSession(&rows[i])
	}
	return out, nil
}

// Touch updates last_active and marks the session current.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE device_sessions SET last_active = $2, is_current = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// Delete removes the session by id. Deleting a missing session is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_sessions WHERE id = $1`, id)
	return err
}

func rowToSession(row *sessionRow) *domain.Session {
	return &domain.Session{
		ID:         row.ID,
		UserID:     row.UserID,
		DeviceName: row.DeviceName,
		DeviceType: row.DeviceType,
		Browser:    row.Browser,
		OS:         row.OS,
		IsCurrent:  row.IsCurrent,
		LastActive: row.LastActive,
		CreatedAt:  row.CreatedAt,
	}
}
