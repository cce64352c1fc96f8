package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"netnest/backend/internal/trust/domain"
)

// PostgresRepository persists trusted devices in the trusted_devices table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a trusted device repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type deviceRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Token      string    `db:"device_token"`
	DeviceName string    `db:"device_name"`
	Browser    string    `db:"browser"`
	OS         string    `db:"os"`
	CreatedAt  time.Time `db:"created_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

const deviceColumns = `id, user_id, device_token, device_name, browser, os, created_at, expires_at`

// Create persists the device. The device must have ID and Token set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	const q = `
		INSERT INTO trusted_devices (id, user_id, device_token, device_name, browser, os, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q, d.ID, d.UserID, d.Token, d.DeviceName, d.Browser, d.OS, d.CreatedAt, d.ExpiresAt)
	return err
}

// GetByID returns the device for id, or nil if not found. It returns an error
// only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	var row deviceRow
	err := r.db.GetContext(ctx, &row, `SELECT `+deviceColumns+` FROM trusted_devices WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDevice(&row), nil
}

// GetByUserAndToken returns the device matching userID and token, or nil if
// not found.
func (r *PostgresRepository) GetByUserAndToken(ctx context.Context, userID, token string) (*domain.Device, error) {
	var row deviceRow
	const q = `SELECT ` + deviceColumns + ` FROM trusted_devices WHERE user_id = $1 AND device_token = $2`
	err := r.db.GetContext(ctx, &row, q, userID, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDevice(&row), nil
}

// ListByUser returns all trusted devices for userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Device, error) {
	var rows []deviceRow
	const q = `SELECT ` + deviceColumns + ` FROM trusted_devices WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	out := make([]*domain.Device, len(rows))
	for i := range rows {
		out[i] = rowToDevice(&rows[i])
	}
	return out, nil
}

// Delete removes the device by id. Deleting a missing device is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM trusted_devices WHERE id = $1`, id)
	return err
}

func rowToDevice(row *deviceRow) *domain.Device {
	return &domain.Device{
		ID:         row.ID,
		UserID:     row.UserID,
		Token:      row.Token,
		DeviceName: row.DeviceName,
		Browser:    row.Browser,
		OS:         row.OS,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
	}
}
