// Package devicesession tracks which browsers are currently associated with
// an account, one session per browser per principal, upserted on each app
// load.
package devicesession

import (
	"context"
	"time"

	"github.com/google/uuid"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/clientstore"
	"netnest/backend/internal/devicesession/domain"
	sessionrepo "netnest/backend/internal/devicesession/repository"
	"netnest/backend/internal/useragent"
)

// Recorder is the subset of the activity logger the service needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Service manages device sessions. The browser remembers its session id in
// the client store under the per-principal key; Track uses that to decide
// between refreshing the existing row and creating a new one.
type Service struct {
	repo     sessionrepo.Repository
	client   clientstore.Store
	activity Recorder
	nowF     func() time.Time
}

// NewService returns a device session service. activity may be nil.
func NewService(repo sessionrepo.Repository, client clientstore.Store, activity Recorder) *Service {
	return &Service{repo: repo, client: client, activity: activity, nowF: func() time.Time { return time.Now().UTC() }}
}

// Track upserts the calling browser's session: if the client store holds a
// session id that still exists server-side, its last_active is refreshed;
// otherwise a new session is created from the User-Agent descriptor and its
// id written back to the client store. Returns the current session.
func (s *Service) Track(ctx context.Context, userID, userAgent string) (*domain.Session, error) {
	key := clientstore.DeviceSessionKey(userID)
	now := s.nowF()
	if id, ok := s.client.Get(ctx, key); ok && id != "" {
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.UserID == userID {
			if err := s.repo.Touch(ctx, existing.ID, now); err != nil {
				return nil, err
			}
			existing.LastActive = now
			existing.IsCurrent = true
			return existing, nil
		}
		// The remembered id no longer resolves; fall through to a new session.
		s.client.Delete(ctx, key)
	}
	client := useragent.Classify(userAgent)
	sess := &domain.Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		DeviceName: client.Device,
		DeviceType: client.Type,
		Browser:    client.Browser,
		OS:         client.OS,
		IsCurrent:  true,
		LastActive: now,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.client.Set(ctx, key, sess.ID)
	return sess, nil
}

// List returns the user's sessions, most recently active first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Remove deletes a session. If it is the one the calling browser remembers,
// the client-side id is cleared as well. Logs "session_removed".
func (s *Service) Remove(ctx context.Context, sessionID string) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, sess.ID); err != nil {
		return err
	}
	key := clientstore.DeviceSessionKey(sess.UserID)
	if id, ok := s.client.Get(ctx, key); ok && id == sess.ID {
		s.client.Delete(ctx, key)
	}
	if s.activity != nil {
		s.activity.Record(ctx, sess.UserID, activitydomain.EventSessionRemoved,
			"Removed device session "+sess.DeviceName+" ("+sess.Browser+" on "+sess.OS+")", nil)
	}
	return nil
}
