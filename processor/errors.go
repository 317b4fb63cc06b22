package processor

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrProviderNotImplemented is returned by New for an unregistered provider name.
	ErrProviderNotImplemented = errors.New("provider not implemented")

	// ErrMissingAPIKey is returned when a provider needs a credential and none was configured.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrNoAssistant is returned when no assistant id was passed or configured.
	ErrNoAssistant = errors.New("no assistant id given")

	// ErrEmptyContent is returned when a message with no text is submitted.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrNotFound is returned for unknown assistants, threads, or runs.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when a run does not reach a terminal state in time.
	ErrTimeout = errors.New("timed out waiting for run")

	// ErrRunFailed is returned when a run ends in a non-completed terminal state.
	ErrRunFailed = errors.New("run did not complete")

	// ErrNoAssistantMessage is returned while no assistant reply follows the latest user message.
	ErrNoAssistantMessage = errors.New("no assistant message found")

	// ErrUnknownFunction is returned when a run calls a function that is not registered.
	ErrUnknownFunction = errors.New("unknown function")
)

// APIError wraps a failed call to a hosted provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// RunError carries the terminal state of a run that did not complete.
// It matches ErrRunFailed, or ErrTimeout when the run expired.
type RunError struct {
	RunID  string
	Status RunStatus
	Reason string
}

func (e *RunError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("run %s %s: %s", e.RunID, e.Status, e.Reason)
	}
	return fmt.Sprintf("run %s %s", e.RunID, e.Status)
}

func (e *RunError) Is(target error) bool {
	if target == ErrRunFailed {
		return true
	}
	return target == ErrTimeout && e.Status == RunExpired
}

// IsRetryable reports whether err is transient: rate limits, conflicts,
// server errors, network timeouts, or a reply that has not arrived yet.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoAssistantMessage) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusConflict,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= 500:
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTimeout reports whether err represents a run or wait that ran out of time,
// as opposed to a run that failed.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
