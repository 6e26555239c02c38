package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent is returned when a message body is not a usable job event
	ErrInvalidEvent = errors.New("invalid job event")

	// ErrDuplicateEvent is returned when an event ID was already recorded
	ErrDuplicateEvent = errors.New("job event already recorded")
)

// RetryableError marks a recording failure worth a redelivery
type RetryableError struct {
	EventID string
	Err     error
}

func (e *RetryableError) Error() string {
	if e.EventID == "" {
		return "retryable error: " + e.Err.Error()
	}
	return fmt.Sprintf("recording event %s: %v", e.EventID, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError wraps err for the event it failed on. eventID may be empty.
func NewRetryableError(eventID string, err error) error {
	return &RetryableError{EventID: eventID, Err: err}
}
