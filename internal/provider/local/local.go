// Package local is an in-process identity provider for development and
// tests. It keeps users, factors and challenges in memory, verifies real
// TOTP codes, and issues HS256 session tokens carrying the assurance level.
package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"netnest/backend/internal/provider"
	"netnest/backend/internal/security"
)

const challengeTTL = 5 * time.Minute

type user struct {
	id           string
	email        string
	phone        string
	passwordHash string
}

type factor struct {
	id           string
	userID       string
	friendlyName string
	status       string
	secret       string
	uri          string
	createdAt    time.Time
}

type challenge struct {
	id        string
	factorID  string
	userID    string
	expiresAt time.Time
}

// Provider implements the identity provider contract in memory.
type Provider struct {
	mu         sync.RWMutex
	users      map[string]*user   // by id
	byEmail    map[string]string  // email -> id
	factors    map[string]*factor // by id
	challenges map[string]*challenge
	refresh    map[string]string // token hash -> user id

	hasher *security.Hasher
	tokens *security.TokenProvider
	issuer string
	nowF   func() time.Time
}

// New returns an empty local provider. issuer names the service in otpauth
// URIs and token claims; secret signs session tokens.
func New(secret []byte, issuer string, accessTTL time.Duration) *Provider {
	return &Provider{
		users:      make(map[string]*user),
		byEmail:    make(map[string]string),
		factors:    make(map[string]*factor),
		challenges: make(map[string]*challenge),
		refresh:    make(map[string]string),
		hasher:     security.NewHasher(0),
		tokens:     security.NewTokenProvider(secret, issuer, accessTTL),
		issuer:     issuer,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser provisions a confirmed user.
func (p *Provider) CreateUser(ctx context.Context, email, password, phone string) (*provider.User, error) {
	hash, err := p.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(email)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[key]; exists {
		return nil, provider.ErrInvalidCredentials
	}
	u := &user{id: uuid.New().String(), email: email, phone: phone, passwordHash: hash}
	p.users[u.id] = u
	p.byEmail[key] = u.id
	return &provider.User{ID: u.id, Email: u.email, Phone: u.phone}, nil
}

// SignInWithPassword exchanges credentials for an aal1 session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	p.mu.RLock()
	id, ok := p.byEmail[strings.ToLower(email)]
	var u *user
	if ok {
		u = p.users[id]
	}
	p.mu.RUnlock()
	if u == nil {
		return nil, provider.ErrInvalidCredentials
	}
	if err := p.hasher.Compare(u.passwordHash, []byte(password)); err != nil {
		return nil, provider.ErrInvalidCredentials
	}
	return p.issueSession(u, provider.AAL1)
}

func (p *Provider) issueSession(u *user, aal string) (*provider.Session, error) {
	token, expiresAt, err := p.tokens.Issue(u.id, u.email, aal)
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.refresh[security.HashToken(refresh)] = u.id
	p.mu.Unlock()
	return &provider.Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         provider.User{ID: u.id, Email: u.email, Phone: u.phone},
	}, nil
}

// userForToken resolves and validates the access token.
func (p *Provider) userForToken(accessToken string) (*user, *security.SessionClaims, error) {
	claims, err := p.tokens.Validate(accessToken)
	if err != nil {
		return nil, nil, provider.ErrInvalidToken
	}
	p.mu.RLock()
	u := p.users[claims.Subject]
	p.mu.RUnlock()
	if u == nil {
		return nil, nil, provider.ErrInvalidToken
	}
	return u, claims, nil
}

// AssuranceLevel reports the session's current and reachable assurance.
func (p *Provider) AssuranceLevel(ctx context.Context, accessToken string) (*provider.Assurance, error) {
	u, claims, err := p.userForToken(accessToken)
	if err != nil {
		return nil, err
	}
	current := claims.AAL
	if current == "" {
		current = provider.AAL1
	}
	next := current
	p.mu.RLock()
	for _, f := range p.factors {
		if f.userID == u.id && f.status == provider.FactorVerified {
			next = provider.AAL2
			break
		}
	}
	p.mu.RUnlock()
	return &provider.Assurance{CurrentLevel: current, NextLevel: next}, nil
}

// EnrollTOTP creates an unverified TOTP factor with a fresh shared secret.
func (p *Provider) EnrollTOTP(ctx context.Context, accessToken, friendlyName string) (*provider.Factor, error) {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return nil, err
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: p.issuer, AccountName: u.email})
	if err != nil {
		return nil, err
	}
	f := &factor{
		id:           uuid.New().String(),
		userID:       u.id,
		friendlyName: friendlyName,
		status:       provider.FactorUnverified,
		secret:       key.Secret(),
		uri:          key.URL(),
		createdAt:    p.nowF(),
	}
	p.mu.Lock()
	p.factors[f.id] = f
	p.mu.Unlock()
	return &provider.Factor{
		ID: f.id, Type: "totp", FriendlyName: f.friendlyName,
		Status: f.status, Secret: f.secret, URI: f.uri, CreatedAt: f.createdAt,
	}, nil
}

// ListFactors returns the session user's factors. Secrets are never
// returned after enrollment.
func (p *Provider) ListFactors(ctx context.Context, accessToken string) ([]*provider.Factor, error) {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*provider.Factor
	for _, f := range p.factors {
		if f.userID == u.id {
			out = append(out, &provider.Factor{
				ID: f.id, Type: "totp", FriendlyName: f.friendlyName,
				Status: f.status, CreatedAt: f.createdAt,
			})
		}
	}
	return out, nil
}

// CreateChallenge opens a single-use verification attempt on the factor.
func (p *Provider) CreateChallenge(ctx context.Context, accessToken, factorID string) (*provider.Challenge, error) {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.factors[factorID]
	if f == nil || f.userID != u.id {
		return nil, provider.ErrFactorNotFound
	}
	ch := &challenge{
		id:        uuid.New().String(),
		factorID:  f.id,
		userID:    u.id,
		expiresAt: p.nowF().Add(challengeTTL),
	}
	p.challenges[ch.id] = ch
	return &provider.Challenge{ID: ch.id, FactorID: ch.factorID, ExpiresAt: ch.expiresAt}, nil
}

// VerifyChallenge checks the code. The challenge is consumed by the attempt
// whether or not the code verifies; retries need a fresh one. On success the
// factor becomes verified and an aal2 session is returned.
func (p *Provider) VerifyChallenge(ctx context.Context, accessToken, factorID, challengeID, code string) (*provider.Session, error) {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	ch := p.challenges[challengeID]
	if ch != nil {
		delete(p.challenges, challengeID)
	}
	f := p.factors[factorID]
	p.mu.Unlock()

	if f == nil || f.userID != u.id {
		return nil, provider.ErrFactorNotFound
	}
	if ch == nil || ch.factorID != factorID || ch.userID != u.id {
		return nil, provider.ErrChallengeExpired
	}
	if !ch.expiresAt.After(p.nowF()) {
		return nil, provider.ErrChallengeExpired
	}
	if !totp.Validate(code, f.secret) {
		return nil, provider.ErrInvalidCode
	}
	p.mu.Lock()
	f.status = provider.FactorVerified
	p.mu.Unlock()
	return p.issueSession(u, provider.AAL2)
}

// UnenrollFactor deletes the factor.
func (p *Provider) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.factors[factorID]
	if f == nil || f.userID != u.id {
		return provider.ErrFactorNotFound
	}
	delete(p.factors, factorID)
	return nil
}

// UpdatePassword sets a new password for the session user.
func (p *Provider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return err
	}
	hash, err := p.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	p.mu.Lock()
	u.passwordHash = hash
	p.mu.Unlock()
	return nil
}

// UpdateEmail sets a new email for the session user.
func (p *Provider) UpdateEmail(ctx context.Context, accessToken, newEmail string) error {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return err
	}
	key := strings.ToLower(newEmail)
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, exists := p.byEmail[key]; exists && id != u.id {
		return provider.ErrInvalidCredentials
	}
	delete(p.byEmail, strings.ToLower(u.email))
	u.email = newEmail
	p.byEmail[key] = u.id
	return nil
}

// SignOut revokes the user's refresh tokens. Access tokens expire on their
// own.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	u, _, err := p.userForToken(accessToken)
	if err != nil {
		return err
	}
	p.mu.Lock()
	for hash, id := range p.refresh {
		if id == u.id {
			delete(p.refresh, hash)
		}
	}
	p.mu.Unlock()
	return nil
}

// TOTPSecret returns the factor's shared secret so tests can compute valid
// codes. Not part of the provider contract.
func (p *Provider) TOTPSecret(factorID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f := p.factors[factorID]
	if f == nil {
		return "", false
	}
	return f.secret, true
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
