package gotrue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"netnest/backend/internal/provider"
)

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID      string           `json:"id"`
	Email   string           `json:"email"`
	Phone   string           `json:"phone"`
	Factors []factorResponse `json:"factors"`
}

func (t *tokenResponse) toSession() *provider.Session {
	expires := t.ExpiresAt
	if expires == 0 {
		expires = time.Now().Unix() + t.ExpiresIn
	}
	return &provider.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    time.Unix(expires, 0).UTC(),
		User:         provider.User{ID: t.User.ID, Email: t.User.Email, Phone: t.User.Phone},
	}
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	raw, err := c.post(ctx, "/token?grant_type=password", "", map[string]string{
		"email": email, "password": password,
	})
	if err != nil {
		return nil, err
	}
	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return tok.toSession(), nil
}

// AssuranceLevel reads the aal claim out of the access token and pairs it
// with the level the user's factors make reachable. The claim is read
// without signature verification; the provider signed the token and this
// client never grants anything based on it.
func (c *Client) AssuranceLevel(ctx context.Context, accessToken string) (*provider.Assurance, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrInvalidToken, err)
	}
	current := provider.AAL1
	if aal, ok := claims["aal"].(string); ok && aal != "" {
		current = aal
	}
	factors, err := c.ListFactors(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	next := current
	for _, f := range factors {
		if f.Status == provider.FactorVerified {
			next = provider.AAL2
			break
		}
	}
	return &provider.Assurance{CurrentLevel: current, NextLevel: next}, nil
}

// UpdatePassword sets a new password for the session user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	_, err := c.put(ctx, "/user", accessToken, map[string]string{"password": newPassword})
	return err
}

// UpdateEmail sets a new email for the session user.
func (c *Client) UpdateEmail(ctx context.Context, accessToken, newEmail string) error {
	_, err := c.put(ctx, "/user", accessToken, map[string]string{"email": newEmail})
	return err
}

// SignOut revokes the session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/logout", accessToken, nil)
	return err
}
