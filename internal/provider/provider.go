// Package provider abstracts the identity provider that owns credentials,
// sessions and TOTP factors. The backend composes its flows (trusted-device
// bypass, recovery codes, activity logging) around this client; the provider
// itself stays an external collaborator.
package provider

import (
	"context"
	"errors"
	"time"
)

// Assurance levels reported by the provider for a session.
const (
	AAL1 = "aal1" // single factor (password) proven
	AAL2 = "aal2" // second factor proven
)

// Factor lifecycle states.
const (
	FactorUnverified = "unverified"
	FactorVerified   = "verified"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair is
	// rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is returned when a TOTP code does not verify against
	// its challenge.
	ErrInvalidCode = errors.New("invalid code")
	// ErrFactorNotFound is returned for operations on an unknown factor.
	ErrFactorNotFound = errors.New("factor not found")
	// ErrChallengeExpired is returned when a challenge is no longer
	// acceptable.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrInvalidToken is returned when the access token is missing,
	// malformed or expired.
	ErrInvalidToken = errors.New("invalid access token")
)

// User is the provider's view of a principal.
type User struct {
	ID    string
	Email string
	Phone string
}

// Session is an authenticated provider session. AccessToken carries the
// assurance level as a claim.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Factor is an enrolled second factor. Secret and URI are populated only in
// the enrollment response; afterwards the provider never returns them again.
type Factor struct {
	ID           string
	Type         string
	FriendlyName string
	Status       string
	Secret       string
	URI          string
	CreatedAt    time.Time
}

// Challenge is a single verification attempt against a factor. Each attempt
// needs a fresh one.
type Challenge struct {
	ID        string
	FactorID  string
	ExpiresAt time.Time
}

// Assurance describes where a session stands relative to where it could be.
// A second factor is required exactly when CurrentLevel is aal1 and
// NextLevel is aal2.
type Assurance struct {
	CurrentLevel string
	NextLevel    string
}

// MFARequired reports whether the session must step up before it is fully
// authenticated.
func (a Assurance) MFARequired() bool {
	return a.CurrentLevel == AAL1 && a.NextLevel == AAL2
}

// Client is the identity provider contract. Implementations: the GoTrue HTTP
// client for deployments and the in-process local provider for development
// and tests.
type Client interface {
	// SignInWithPassword exchanges credentials for a session. The returned
	// session is at aal1 when the user has a verified second factor.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// AssuranceLevel reports the session's current and reachable assurance.
	AssuranceLevel(ctx context.Context, accessToken string) (*Assurance, error)
	// EnrollTOTP creates an unverified TOTP factor and returns its shared
	// secret and otpauth URI for QR display.
	EnrollTOTP(ctx context.Context, accessToken, friendlyName string) (*Factor, error)
	// ListFactors returns the session user's factors.
	ListFactors(ctx context.Context, accessToken string) ([]*Factor, error)
	// CreateChallenge opens a fresh verification attempt on the factor.
	CreateChallenge(ctx context.Context, accessToken, factorID string) (*Challenge, error)
	// VerifyChallenge checks the code against the challenge. On success the
	// factor becomes verified (if it was not) and the returned session is
	// at aal2.
	VerifyChallenge(ctx context.Context, accessToken, factorID, challengeID, code string) (*Session, error)
	// UnenrollFactor deletes the factor.
	UnenrollFactor(ctx context.Context, accessToken, factorID string) error
	// UpdatePassword sets a new password for the session user.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	// UpdateEmail sets a new email for the session user.
	UpdateEmail(ctx context.Context, accessToken, newEmail string) error
	// SignOut revokes the session.
	SignOut(ctx context.Context, accessToken string) error
	// CreateUser provisions a confirmed user. Admin-level operation.
	CreateUser(ctx context.Context, email, password, phone string) (*User, error)
}
