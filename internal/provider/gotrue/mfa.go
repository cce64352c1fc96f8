package gotrue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netnest/backend/internal/provider"
)

type factorResponse struct {
	ID           string    `json:"id"`
	FactorType   string    `json:"factor_type"`
	FriendlyName string    `json:"friendly_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	TOTP         *struct {
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	} `json:"totp,omitempty"`
}

func (f *factorResponse) toFactor() *provider.Factor {
	out := &provider.Factor{
		ID:           f.ID,
		Type:         f.FactorType,
		FriendlyName: f.FriendlyName,
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
	}
	if f.TOTP != nil {
		out.Secret = f.TOTP.Secret
		out.URI = f.TOTP.URI
	}
	return out
}

// EnrollTOTP creates an unverified TOTP factor. The response carries the
// shared secret and otpauth URI exactly once.
func (c *Client) EnrollTOTP(ctx context.Context, accessToken, friendlyName string) (*provider.Factor, error) {
	raw, err := c.post(ctx, "/factors", accessToken, map[string]string{
		"factor_type": "totp", "friendly_name": friendlyName,
	})
	if err != nil {
		return nil, err
	}
	var f factorResponse
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode factor response: %w", err)
	}
	if f.Status == "" {
		f.Status = provider.FactorUnverified
	}
	return f.toFactor(), nil
}

// ListFactors returns the session user's factors.
func (c *Client) ListFactors(ctx context.Context, accessToken string) ([]*provider.Factor, error) {
	raw, err := c.get(ctx, "/user", accessToken)
	if err != nil {
		return nil, err
	}
	var u userResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	out := make([]*provider.Factor, len(u.Factors))
	for i := range u.Factors {
		out[i] = u.Factors[i].toFactor()
	}
	return out, nil
}

// CreateChallenge opens a fresh verification attempt on the factor.
func (c *Client) CreateChallenge(ctx context.Context, accessToken, factorID string) (*provider.Challenge, error) {
	raw, err := c.post(ctx, "/factors/"+factorID+"/challenge", accessToken, nil)
	if err != nil {
		return nil, err
	}
	var ch struct {
		ID        string `json:"id"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode challenge response: %w", err)
	}
	return &provider.Challenge{
		ID:        ch.ID,
		FactorID:  factorID,
		ExpiresAt: time.Unix(ch.ExpiresAt, 0).UTC(),
	}, nil
}

// VerifyChallenge checks the code against the challenge. On success the
// returned session is at aal2.
func (c *Client) VerifyChallenge(ctx context.Context, accessToken, factorID, challengeID, code string) (*provider.Session, error) {
	raw, err := c.post(ctx, "/factors/"+factorID+"/verify", accessToken, map[string]string{
		"challenge_id": challengeID, "code": code,
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

// UnenrollFactor deletes the factor.
func (c *Client) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	_, err := c.del(ctx, "/factors/"+factorID, accessToken)
	return err
}
