// Package activity writes and queries the append-only security activity log.
// Writes are best-effort: a failed write never fails or rolls back the action
// it describes.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netnest/backend/internal/activity/domain"
	activityrepo "netnest/backend/internal/activity/repository"
	"netnest/backend/internal/metrics"
)

// recordTimeout bounds a single detached log write.
const recordTimeout = 5 * time.Second

// UserAgentExtractor returns the client's User-Agent from the request context.
type UserAgentExtractor func(context.Context) string

// Recorder appends one activity event. Implementations must be best-effort:
// failures are reported to a diagnostics sink, never to the caller.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType domain.EventType, description string, metadata map[string]any)
}

// Logger implements Recorder against the activity repository.
type Logger struct {
	repo        activityrepo.Repository
	log         *zap.Logger
	uaExtractor UserAgentExtractor
}

// NewLogger returns a Recorder that persists to repo. uaExtractor may be nil;
// the user agent is then recorded as "unknown". log may be nil.
func NewLogger(repo activityrepo.Repository, log *zap.Logger, uaExtractor UserAgentExtractor) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{repo: repo, log: log, uaExtractor: uaExtractor}
}

// Record appends one entry in a detached goroutine so the caller is never
// blocked on, or failed by, the log write. The goroutine uses a background
// context with its own timeout so request cancellation does not abort the
// write. Entries with an unknown event type are dropped and reported.
func (l *Logger) Record(ctx context.Context, userID string, eventType domain.EventType, description string, metadata map[string]any) {
	if l.repo == nil {
		return
	}
	ua := "unknown"
	if l.uaExtractor != nil {
		if got := l.uaExtractor(ctx); got != "" {
			ua = got
		}
	}
	entry := &domain.Entry{
		ID:          uuid.New().String(),
		UserID:      userID,
		EventType:   eventType,
		Description: description,
		UserAgent:   ua,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		l.log.Warn("activity: dropping invalid entry", zap.Error(err))
		return
	}
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.repo.Create(writeCtx, entry); err != nil {
			metrics.ActivityWriteFailures.Inc()
			l.log.Warn("activity: failed to record event",
				zap.String("event_type", string(eventType)),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}()
}

// Service answers activity log queries for the admin log screen.
type Service struct {
	repo activityrepo.Repository
}

// NewService returns a query service over repo.
func NewService(repo activityrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns entries matching f, newest first.
func (s *Service) List(ctx context.Context, f activityrepo.Filter) ([]*domain.Entry, error) {
	return s.repo.List(ctx, f)
}
