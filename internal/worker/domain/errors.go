package domain

import "errors"

var (
	// ErrRunNotFound is returned when a run cannot be found in the database
	ErrRunNotFound = errors.New("run not found")

	// ErrRunAlreadyClaimed is returned when a run is not PENDING at claim time
	ErrRunAlreadyClaimed = errors.New("run already claimed or not in PENDING status")

	// ErrInvalidPayload is returned when a run request message is malformed
	ErrInvalidPayload = errors.New("invalid run payload")

	// ErrMaxRetriesExceeded is returned when a run has exceeded its retry limit
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
