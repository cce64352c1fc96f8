// Package enrollment implements the TOTP enrollment state machine: start
// hands out a fresh factor with its provisioning secret, confirm proves
// possession with a first code, cancel discards the pending factor, disable
// removes an active one.
package enrollment

import (
	"context"
	"errors"
	"regexp"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/provider"
)

var (
	// ErrInvalidCode is returned for codes that are not exactly 6 digits,
	// rejected before any provider call.
	ErrInvalidCode = errors.New("code must be 6 digits")
	// ErrVerificationFailed is the generic confirmation failure. The user
	// stays in the verify state and may retry with a new code.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrNoFactor is returned by Disable when no active factor exists.
	ErrNoFactor = errors.New("no enrolled factor")
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Recorder is the subset of the activity logger the service needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Service drives TOTP enrollment against the identity provider.
type Service struct {
	provider provider.Client
	activity Recorder
}

// NewService returns an enrollment service. activity may be nil.
func NewService(p provider.Client, activity Recorder) *Service {
	return &Service{provider: p, activity: activity}
}

// Start requests a new TOTP factor. The returned factor carries the shared
// secret and otpauth URI for authenticator-app scanning; neither is ever
// shown again.
func (s *Service) Start(ctx context.Context, accessToken string) (*provider.Factor, error) {
	return s.provider.EnrollTOTP(ctx, accessToken, "Authenticator app")
}

// Confirm proves possession of the pending factor with a 6-digit code. A
// fresh challenge is created per attempt; stale challenges are never reused.
// On success the factor becomes active and "2fa_enabled" is recorded.
func (s *Service) Confirm(ctx context.Context, userID, accessToken, factorID, code string) (*provider.Session, error) {
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidCode
	}
	ch, err := s.provider.CreateChallenge(ctx, accessToken, factorID)
	if err != nil {
		if errors.Is(err, provider.ErrFactorNotFound) {
			return nil, ErrVerificationFailed
		}
		return nil, err
	}
	sess, err := s.provider.VerifyChallenge(ctx, accessToken, factorID, ch.ID, code)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCode) || errors.Is(err, provider.ErrChallengeExpired) {
			return nil, ErrVerificationFailed
		}
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, userID, activitydomain.EventTwoFactorEnabled, "Two-factor authentication enabled", nil)
	}
	return sess, nil
}

// Cancel aborts a pending enrollment, discarding the unverified factor. The
// state machine returns to start.
func (s *Service) Cancel(ctx context.Context, accessToken, factorID string) error {
	err := s.provider.UnenrollFactor(ctx, accessToken, factorID)
	if errors.Is(err, provider.ErrFactorNotFound) {
		return nil
	}
	return err
}

// Disable removes the user's active factor and records "2fa_disabled".
func (s *Service) Disable(ctx context.Context, userID, accessToken string) error {
	factors, err := s.provider.ListFactors(ctx, accessToken)
	if err != nil {
		return err
	}
	var active *provider.Factor
	for _, f := range factors {
		if f.Status == provider.FactorVerified {
			active = f
			break
		}
	}
	if active == nil {
		return ErrNoFactor
	}
	if err := s.provider.UnenrollFactor(ctx, accessToken, active.ID); err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, userID, activitydomain.EventTwoFactorDisabled, "Two-factor authentication disabled", nil)
	}
	return nil
}
