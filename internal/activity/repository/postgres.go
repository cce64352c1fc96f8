package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"netnest/backend/internal/activity/domain"
)

const defaultListLimit = 50

// PostgresRepository persists activity log entries in the activity_logs table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an activity log repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type entryRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	EventType   string    `db:"event_type"`
	Description string    `db:"description"`
	UserAgent   string    `db:"user_agent"`
	Metadata    []byte    `db:"metadata"`
	CreatedAt   time.Time `db:"created_at"`
}

// Create appends one entry. The entry must have ID set and a valid event type.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO activity_logs (id, user_id, event_type, description, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, q, e.ID, e.UserID, string(e.EventType), e.Description, e.UserAgent, raw, e.CreatedAt)
	return err
}

// List returns entries matching f ordered by created_at descending. Pagination
// is by limit/offset; a zero limit falls back to the default page size.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*domain.Entry, error) {
	q := `
		SELECT id, user_id, event_type, description, user_agent, metadata, created_at
		FROM activity_logs
		WHERE 1=1`
	args := []any{}
	n := 0
	next := func() string {
		n++
		return "$" + strconv.Itoa(n)
	}
	if f.UserID != "" {
		q += " AND user_id = " + next()
		args = append(args, f.UserID)
	}
	if f.EventType != "" {
		q += " AND event_type = " + next()
		args = append(args, string(f.EventType))
	}
	if f.Search != "" {
		q += " AND description ILIKE " + next()
		args = append(args, "%"+f.Search+"%")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q += " ORDER BY created_at DESC LIMIT " + next()
	args = append(args, limit)
	q += " OFFSET " + next()
	args = append(args, f.Offset)

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, len(rows))
	for i := range rows {
		e, err := rowToEntry(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// CountByUser returns the total number of entries for userID.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	const q = `SELECT COUNT(*) FROM activity_logs WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &count, q, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func rowToEntry(row *entryRow) (*domain.Entry, error) {
	meta := map[string]any{}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return nil, err
		}
	}
	return &domain.Entry{
		ID:          row.ID,
		UserID:      row.UserID,
		EventType:   domain.EventType(row.EventType),
		Description: row.Description,
		UserAgent:   row.UserAgent,
		Metadata:    meta,
		CreatedAt:   row.CreatedAt,
	}, nil
}
