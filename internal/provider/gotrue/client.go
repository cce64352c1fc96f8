// Package gotrue implements the provider client against a GoTrue-compatible
// identity API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client talks to a GoTrue-compatible identity API. Per-user calls carry the
// session access token as the bearer; admin calls carry the service key.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a provider client for the API at baseURL. anonKey is
// sent as the apikey header on every request; serviceKey authorizes admin
// endpoints and may be empty when admin operations are not used.
func NewClient(baseURL, anonKey, serviceKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doRequest(ctx context.Context, method, path, bearer string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(respBody) == 0 {
			return nil, nil
		}
		return json.RawMessage(respBody), nil
	}
	return nil, parseAPIError(resp.StatusCode, respBody)
}

func (c *Client) get(ctx context.Context, path, bearer string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, path, bearer, nil)
}

func (c *Client) post(ctx context.Context, path, bearer string, payload any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, path, bearer, payload)
}

func (c *Client) put(ctx context.Context, path, bearer string, payload any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPut, path, bearer, payload)
}

func (c *Client) del(ctx context.Context, path, bearer string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodDelete, path, bearer, nil)
}
