package gotrue

import (
	"context"
	"encoding/json"
	"fmt"

	"netnest/backend/internal/provider"
)

// CreateUser provisions a confirmed user via the admin API. Requires the
// service key.
func (c *Client) CreateUser(ctx context.Context, email, password, phone string) (*provider.User, error) {
	payload := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	if phone != "" {
		payload["phone"] = phone
		payload["phone_confirm"] = true
	}
	raw, err := c.post(ctx, "/admin/users", c.serviceKey, payload)
	if err != nil {
		return nil, err
	}
	var u userResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &provider.User{ID: u.ID, Email: u.Email, Phone: u.Phone}, nil
}
