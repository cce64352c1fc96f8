package gotrue

import (
	"encoding/json"
	"fmt"
	"net/http"

	"netnest/backend/internal/provider"
)

// APIError represents a non-2xx API response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	var errBody struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &errBody) == nil {
		apiErr.ErrorCode = errBody.ErrorCode
		switch {
		case errBody.Msg != "":
			apiErr.Message = errBody.Msg
		case errBody.Message != "":
			apiErr.Message = errBody.Message
		default:
			apiErr.Message = errBody.ErrorDescription
		}
	} else {
		apiErr.Message = string(body)
	}
	return sentinelFor(apiErr)
}

// sentinelFor translates well-known API errors into the provider package's
// sentinel errors so callers do not depend on GoTrue error codes. The raw
// APIError stays in the chain for diagnostics.
func sentinelFor(e *APIError) error {
	switch e.ErrorCode {
	case "invalid_credentials":
		return fmt.Errorf("%w: %w", provider.ErrInvalidCredentials, e)
	case "mfa_verification_failed":
		return fmt.Errorf("%w: %w", provider.ErrInvalidCode, e)
	case "mfa_factor_not_found":
		return fmt.Errorf("%w: %w", provider.ErrFactorNotFound, e)
	case "mfa_challenge_expired":
		return fmt.Errorf("%w: %w", provider.ErrChallengeExpired, e)
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", provider.ErrInvalidToken, e)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", provider.ErrFactorNotFound, e)
	}
	return e
}
