// Package server provides the HTTP proxy in front of the scoring engine and
// the remote optimization service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/llm"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		cfgErr     *llm.ConfigError
		authErr    *llm.AuthError
		rateErr    *llm.RateLimitError
		upstream   *llm.UpstreamError
		network    *llm.NetworkError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &network):
		if network.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text returned to clients. Configuration and
// unexpected errors are not echoed.
func publicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusUnauthorized:
		return "the AI service rejected the credentials"
	case http.StatusTooManyRequests:
		return "the AI service is rate limiting requests, try again later"
	case http.StatusBadGateway:
		return "the AI service returned an error"
	case http.StatusServiceUnavailable:
		return "the AI service could not be reached"
	case http.StatusGatewayTimeout:
		return "the AI service timed out"
	default:
		var cfgErr *llm.ConfigError
		if errors.As(err, &cfgErr) {
			return "the AI service is not configured"
		}
		return "internal server error"
	}
}
