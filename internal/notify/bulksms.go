// Package notify dispatches outbound SMS on status transitions. Dispatch is
// fire-and-forget: failures go to the diagnostics log and never block or
// fail the action that triggered them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Timeout caps the provider round trip so a slow SMS gateway cannot stall
// the caller.
const defaultTimeout = 8 * time.Second

const defaultBaseURL = "http://bulksmsbd.net/api/smsapi"

// countryPrefix is prepended to numbers that do not already carry it.
const countryPrefix = "88"

// BulkSMSClient sends SMS via the BulkSMS BD HTTP API.
type BulkSMSClient struct {
	APIKey     string
	SenderID   string
	BaseURL    string
	HTTPClient *http.Client
}

// NewBulkSMSClient returns a client with the given credentials and optional
// base URL.
func NewBulkSMSClient(apiKey, senderID, baseURL string) *BulkSMSClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &BulkSMSClient{
		APIKey:     apiKey,
		SenderID:   senderID,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FormatPhone strips non-digits and ensures the country prefix: a leading 0
// is replaced by the prefix, a bare local number gets it prepended.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		return countryPrefix + digits[1:]
	}
	if !strings.HasPrefix(digits, countryPrefix) {
		return countryPrefix + digits
	}
	return digits
}

// Send delivers message to phone. The provider signals success with
// response_code 202; anything else is an error.
func (c *BulkSMSClient) Send(ctx context.Context, phone, message string) error {
	if c.APIKey == "" || c.SenderID == "" {
		return fmt.Errorf("sms: credentials not configured")
	}
	q := url.Values{}
	q.Set("api_key", c.APIKey)
	q.Set("type", "text")
	q.Set("number", FormatPhone(phone))
	q.Set("senderid", c.SenderID)
	q.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var providerResp struct {
		ResponseCode json.Number `json:"response_code"`
		ErrorMessage string      `json:"error_message"`
	}
	if err := json.Unmarshal(body, &providerResp); err == nil {
		if providerResp.ResponseCode.String() == "202" {
			return nil
		}
		if providerResp.ErrorMessage != "" {
			return fmt.Errorf("sms: provider rejected request: %s", providerResp.ErrorMessage)
		}
		return fmt.Errorf("sms: provider response_code=%s", providerResp.ResponseCode)
	}
	// Provider may answer plain text; fall back to the HTTP status.
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(body))
}

// Sender is the outbound SMS contract.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// Dispatcher wraps a Sender with fire-and-forget semantics.
type Dispatcher struct {
	sender Sender
	log    *zap.Logger
}

// NewDispatcher returns a dispatcher logging failures to log.
func NewDispatcher(sender Sender, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{sender: sender, log: log}
}

// SendAsync dispatches the SMS on a detached goroutine. The caller proceeds
// immediately; a delivery failure is logged and otherwise dropped.
func (d *Dispatcher) SendAsync(phone, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, phone, message); err != nil {
			d.log.Error("sms dispatch failed", zap.Error(err))
		}
	}()
}
