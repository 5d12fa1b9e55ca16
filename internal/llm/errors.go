package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

// ConfigError reports a missing or invalid local configuration, such as an
// absent API key.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm config error: %s", e.Message)
}

// AuthError reports a credential the model service rejected.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("llm auth error: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// RateLimitError reports that the model service throttled the request.
type RateLimitError struct {
	Message string
	Cause   error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llm rate limited: %s", e.Message)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// UpstreamError reports a failed or unusable response from the model service.
type UpstreamError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm upstream error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm upstream error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NetworkError reports a failure to reach the model service. Timeout is set
// when the call ran out of time.
type NetworkError struct {
	Timeout bool
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("llm network error: %s", e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Classify maps an error from the Gemini client onto this package's error
// types. Errors already classified are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		cfgErr  *ConfigError
		authErr *AuthError
		rlErr   *RateLimitError
		upErr   *UpstreamError
		netErr  *NetworkError
	)
	if errors.As(err, &cfgErr) || errors.As(err, &authErr) || errors.As(err, &rlErr) ||
		errors.As(err, &upErr) || errors.As(err, &netErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Timeout: true, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &NetworkError{Message: "request cancelled", Cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return &AuthError{Message: "credential rejected", Cause: err}
		case apiErr.Code == http.StatusBadRequest && isInvalidKey(apiErr):
			return &AuthError{Message: "invalid API key", Cause: err}
		case apiErr.Code == http.StatusTooManyRequests:
			return &RateLimitError{Message: "quota exceeded", Cause: err}
		case apiErr.Code == http.StatusGatewayTimeout:
			return &NetworkError{Timeout: true, Message: "upstream timed out", Cause: err}
		default:
			return &UpstreamError{StatusCode: apiErr.Code, Message: apiErr.Message, Cause: err}
		}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &UpstreamError{Message: "response blocked by safety filters", Cause: err}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return &NetworkError{Timeout: ne.Timeout(), Message: "cannot reach model service", Cause: err}
	}

	return &UpstreamError{Message: err.Error(), Cause: err}
}

func isInvalidKey(e *googleapi.Error) bool {
	for _, d := range e.Details {
		if m, ok := d.(map[string]any); ok && m["reason"] == "API_KEY_INVALID" {
			return true
		}
	}
	for _, item := range e.Errors {
		if item.Reason == "API_KEY_INVALID" || item.Reason == "keyInvalid" {
			return true
		}
	}
	return false
}
