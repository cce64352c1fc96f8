// Package login orchestrates the credential login flow: provider sign-in,
// assurance introspection, trusted-device bypass, and second-factor
// resolution via TOTP or recovery code.
package login

import (
	"context"
	"errors"
	"regexp"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/provider"
	"netnest/backend/internal/recovery"
	trustdomain "netnest/backend/internal/trust/domain"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair is
	// rejected by the provider.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is returned for malformed codes, rejected before any
	// provider call.
	ErrInvalidCode = errors.New("invalid code format")
	// ErrVerificationFailed is the generic second-factor failure. It covers
	// wrong codes, expired challenges, unknown factors and spent recovery
	// codes without distinguishing them.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrNoFactor is returned when TOTP verification is requested for a
	// session whose user has no verified factor.
	ErrNoFactor = errors.New("no enrolled factor")
)

var totpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// TrustRegistry is the trusted-device surface the login flow needs.
type TrustRegistry interface {
	Check(ctx context.Context, userID string) (bool, error)
	Issue(ctx context.Context, userID, userAgent string) (*trustdomain.Device, error)
}

// RecoveryConsumer consumes a single-use recovery code.
type RecoveryConsumer interface {
	Consume(ctx context.Context, userID, code string) error
}

// Recorder is the subset of the activity logger the flow needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Input carries the credential stage request.
type Input struct {
	Email    string
	Password string
}

// VerifyInput carries a second-factor attempt for a pending session.
type VerifyInput struct {
	// UserID and AccessToken identify the aal1 session from the credential
	// stage.
	UserID      string
	AccessToken string
	Code        string
	// RememberDevice requests trusted-device issuance on success.
	RememberDevice bool
	UserAgent      string
}

// Result is the outcome of the credential stage or a verification attempt.
type Result struct {
	// Session is set on every non-error outcome. For an MFA-pending result
	// it holds the aal1 session the verification stage must present.
	Session *provider.Session
	// MFARequired reports that the flow is suspended pending a second
	// factor.
	MFARequired bool
	// TrustedBypass reports that an enrolled second factor was skipped
	// because the device is trusted.
	TrustedBypass bool
}

// Service drives the login flow.
type Service struct {
	provider provider.Client
	trust    TrustRegistry
	recovery RecoveryConsumer
	activity Recorder
}

// NewService returns a login service. activity may be nil.
func NewService(p provider.Client, trust TrustRegistry, rec RecoveryConsumer, activity Recorder) *Service {
	return &Service{provider: p, trust: trust, recovery: rec, activity: activity}
}

// Login performs the credential stage. When the user has a verified second
// factor the result is MFA-pending unless the device is trusted, in which
// case login completes with the bypass recorded. Failed credential sign-ins
// are not written to the activity log; the principal is not reliably
// identified at that point.
func (s *Service) Login(ctx context.Context, in Input) (*Result, error) {
	sess, err := s.provider.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	assurance, err := s.provider.AssuranceLevel(ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}
	if !assurance.MFARequired() {
		s.record(ctx, sess.User.ID, activitydomain.EventLogin, "Logged in successfully")
		return &Result{Session: sess}, nil
	}

	trusted, err := s.trust.Check(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if trusted {
		s.record(ctx, sess.User.ID, activitydomain.EventLogin, "Logged in (2FA skipped - trusted device)")
		return &Result{Session: sess, TrustedBypass: true}, nil
	}
	return &Result{Session: sess, MFARequired: true}, nil
}

// VerifyTOTP resolves a pending login with a 6-digit authenticator code. A
// fresh challenge is created for every attempt. Failures are logged as
// "login_failed" and surface the generic verification error; the caller may
// retry indefinitely.
func (s *Service) VerifyTOTP(ctx context.Context, in VerifyInput) (*Result, error) {
	if !totpCodePattern.MatchString(in.Code) {
		return nil, ErrInvalidCode
	}
	factorID, err := s.enrolledFactor(ctx, in.AccessToken)
	if err != nil {
		return nil, err
	}
	ch, err := s.provider.CreateChallenge(ctx, in.AccessToken, factorID)
	if err != nil {
		return nil, err
	}
	sess, err := s.provider.VerifyChallenge(ctx, in.AccessToken, factorID, ch.ID, in.Code)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCode) || errors.Is(err, provider.ErrChallengeExpired) {
			s.record(ctx, in.UserID, activitydomain.EventLoginFailed, "Failed 2FA attempt")
			return nil, ErrVerificationFailed
		}
		return nil, err
	}
	return s.completeLogin(ctx, sess, in)
}

// VerifyRecovery resolves a pending login with a single-use recovery code.
// Malformed codes are rejected before any lookup. An unrecognized code and
// an already-used code fail identically.
func (s *Service) VerifyRecovery(ctx context.Context, in VerifyInput) (*Result, error) {
	if err := s.recovery.Consume(ctx, in.UserID, in.Code); err != nil {
		if errors.Is(err, recovery.ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		if errors.Is(err, recovery.ErrCodeNotAccepted) {
			s.record(ctx, in.UserID, activitydomain.EventLoginFailed, "Failed recovery code attempt")
			return nil, ErrVerificationFailed
		}
		return nil, err
	}
	// The recovery path does not step the provider session up to aal2; the
	// aal1 session continues.
	sess := &provider.Session{
		AccessToken: in.AccessToken,
		User:        provider.User{ID: in.UserID},
	}
	return s.completeLogin(ctx, sess, in)
}

// completeLogin is the shared post-success path: optional trust issuance,
// then the "login" activity entry.
func (s *Service) completeLogin(ctx context.Context, sess *provider.Session, in VerifyInput) (*Result, error) {
	if in.RememberDevice {
		if _, err := s.trust.Issue(ctx, sess.User.ID, in.UserAgent); err != nil {
			return nil, err
		}
	}
	s.record(ctx, sess.User.ID, activitydomain.EventLogin, "Logged in successfully")
	return &Result{Session: sess}, nil
}

// enrolledFactor returns the session user's first verified TOTP factor. The
// flow assumes a singular factor.
func (s *Service) enrolledFactor(ctx context.Context, accessToken string) (string, error) {
	factors, err := s.provider.ListFactors(ctx, accessToken)
	if err != nil {
		return "", err
	}
	for _, f := range factors {
		if f.Status == provider.FactorVerified {
			return f.ID, nil
		}
	}
	return "", ErrNoFactor
}

func (s *Service) record(ctx context.Context, userID string, eventType activitydomain.EventType, description string) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, eventType, description, nil)
	}
}
