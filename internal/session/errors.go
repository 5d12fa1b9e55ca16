package session

import (
	"errors"

	"github.com/jonathan/resume-matcher/internal/llm"
)

// ErrorKind classifies the failure recorded in State.Error.
type ErrorKind string

// Error kinds.
const (
	NoError         ErrorKind = ""
	InputError      ErrorKind = "input"
	ExtractionError ErrorKind = "extraction"
	StorageError    ErrorKind = "storage"
	UpstreamError   ErrorKind = "upstream"
)

// ErrBusy is reported when an operation is attempted while another is in
// flight.
var ErrBusy = errors.New("another operation is in progress")

// upstreamMessage turns an optimizer failure into a message for the user.
func upstreamMessage(err error) string {
	var (
		cfgErr  *llm.ConfigError
		authErr *llm.AuthError
		rlErr   *llm.RateLimitError
		netErr  *llm.NetworkError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "AI suggestions are not configured: " + cfgErr.Message
	case errors.As(err, &authErr):
		return "The AI service rejected your credentials. Sign in again and retry."
	case errors.As(err, &rlErr):
		return "The AI service is rate limiting requests. Wait a moment and retry."
	case errors.As(err, &netErr) && netErr.Timeout:
		return "The AI service took too long to respond. Try again."
	case errors.As(err, &netErr):
		return "Could not reach the AI service. Check your connection and retry."
	default:
		return "The AI service failed to produce suggestions: " + err.Error()
	}
}
