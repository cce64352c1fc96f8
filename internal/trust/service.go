// Package trust implements the trusted-device registry: issuing, checking,
// and revoking the bearer tokens that let a browser skip the second factor
// for a bounded period.
package trust

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/clientstore"
	"netnest/backend/internal/trust/domain"
	trustrepo "netnest/backend/internal/trust/repository"
	"netnest/backend/internal/useragent"
)

const (
	tokenLength   = 64
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Recorder is the subset of the activity logger the service needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Service is the trusted-device registry. The client-side mirror of the
// bearer token lives in the injected Store under the per-principal key; the
// token there is the sole bypass credential, so it is written on Issue and
// cleared whenever the server-side record turns out to be missing or expired.
type Service struct {
	repo     trustrepo.Repository
	client   clientstore.Store
	activity Recorder
	nowF     func() time.Time
}

// NewService returns a trusted-device service. activity may be nil.
func NewService(repo trustrepo.Repository, client clientstore.Store, activity Recorder) *Service {
	return &Service{repo: repo, client: client, activity: activity, nowF: func() time.Time { return time.Now().UTC() }}
}

// generateToken returns a 64-character random alphanumeric bearer token.
func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, tokenLength)
	for i := range b {
		out[i] = tokenAlphabet[int(b[i])%len(tokenAlphabet)]
	}
	return string(out), nil
}

// Issue registers the calling browser as trusted for the user: a fresh token
// is persisted server-side with a 30-day expiry and mirrored into the client
// store. The device descriptor is derived from the User-Agent string.
func (s *Service) Issue(ctx context.Context, userID, userAgent string) (*domain.Device, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	client := useragent.Classify(userAgent)
	now := s.nowF()
	d := &domain.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceName: client.Device,
		Browser:    client.Browser,
		OS:         client.OS,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.TrustTTL),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.client.Set(ctx, clientstore.TrustedDeviceKey(userID), token)
	if s.activity != nil {
		desc := fmt.Sprintf("Trusted %s (%s on %s) for 30 days", d.DeviceName, d.Browser, d.OS)
		s.activity.Record(ctx, userID, activitydomain.EventDeviceTrusted, desc, nil)
	}
	return d, nil
}

// Check reports whether the calling browser holds a valid trust token for the
// user. Stale state is cleaned up lazily: a token with no matching server
// record is cleared client-side; an expired record is deleted server-side and
// cleared client-side. There is no background sweep.
func (s *Service) Check(ctx context.Context, userID string) (bool, error) {
	key := clientstore.TrustedDeviceKey(userID)
	token, ok := s.client.Get(ctx, key)
	if !ok || token == "" {
		return false, nil
	}
	d, err := s.repo.GetByUserAndToken(ctx, userID, token)
	if err != nil {
		return false, err
	}
	if d == nil {
		s.client.Delete(ctx, key)
		return false, nil
	}
	if d.Expired(s.nowF()) {
		if err := s.repo.Delete(ctx, d.ID); err != nil {
			return false, err
		}
		s.client.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// List returns the user's trusted devices for the settings screen, newest
// first. Tokens are included in the returned records; handlers must not
// serialize them.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Revoke deletes the trusted-device record. If the revoked device is the one
// the calling browser holds a token for, the client-side copy is cleared too.
// Revoking an unknown id is a no-op.
func (s *Service) Revoke(ctx context.Context, deviceID string) error {
	d, err := s.repo.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}
	key := clientstore.TrustedDeviceKey(d.UserID)
	if token, ok := s.client.Get(ctx, key); ok && token == d.Token {
		s.client.Delete(ctx, key)
	}
	if s.activity != nil {
		desc := fmt.Sprintf("Removed trusted device %s (%s on %s)", d.DeviceName, d.Browser, d.OS)
		s.activity.Record(ctx, d.UserID, activitydomain.EventDeviceRemoved, desc, nil)
	}
	return nil
}
