// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Data errors.
	ErrIO             = errors.New("i/o error")
	ErrSchemaMismatch = errors.New("schema mismatch")

	// Pipeline errors.
	ErrPipelineConfiguration = errors.New("pipeline configuration error")
	ErrTraining              = errors.New("training failed")

	// Model artifact errors.
	ErrFormat = errors.New("invalid model format")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Describe returns the message a user should see for err. Errors wrapped in a
// UserError keep their message; known sentinel kinds get a short hint.
func Describe(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Error()
	}

	switch {
	case errors.Is(err, ErrIO):
		return fmt.Sprintf("could not read or write a file: %v", err)
	case errors.Is(err, ErrSchemaMismatch):
		return fmt.Sprintf("data does not match the declared columns: %v", err)
	case errors.Is(err, ErrFormat):
		return fmt.Sprintf("model file is corrupt or from another version: %v", err)
	default:
		return err.Error()
	}
}
