package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors of the generation pipeline. They are deliberately coarse:
// the only valid caller reaction to any of them is to stop the current
// attempt and report, so finer classification lives in the wrapped cause.
var (
	// ErrAPIKeyMissing means no credential was found in the configuration
	// or the environment. Never retried; the user must supply a key.
	ErrAPIKeyMissing = errors.New("api key not configured")

	// ErrEmptyResponse means the call succeeded but carried no usable text,
	// e.g. a refusal or metadata-only frame.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrInvalidConversation means a request was built from an empty
	// conversation. This is a contract violation, surfaced before any
	// network activity.
	ErrInvalidConversation = errors.New("conversation must contain at least one message")
)

// APIError is any transport- or provider-side failure: auth rejection, rate
// limit, malformed request, timeout, connection drop. The cause is preserved
// for diagnostics but not classified further at this layer.
type APIError struct {
	Status  int    // HTTP status code, 0 for transport failures.
	Message string // Provider diagnostic body, if any.
	Err     error  // Underlying cause, if any.
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("api error: status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("api error: %v", e.Err)
	}
	return "api error"
}

func (e *APIError) Unwrap() error { return e.Err }
