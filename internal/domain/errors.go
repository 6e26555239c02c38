package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job posting cannot be found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidStatus is returned for any status outside active/closed
	ErrInvalidStatus = errors.New("status must be either active or closed")

	// ErrMissingField matches every MissingFieldError via errors.Is
	ErrMissingField = errors.New("missing required field")
)

// MissingFieldError names the first required field that was absent or empty
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
