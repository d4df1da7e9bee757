package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport signals a network or database transport failure.
	ErrTransport = errors.New("transport failure")
	// ErrTimeout signals a fetch that did not settle within its bound.
	ErrTimeout = errors.New("timed out")
	// ErrAuth signals a missing, expired or insufficient credential.
	ErrAuth = errors.New("not authorized")
	// ErrValidation signals a malformed filter or mutation rejected remotely.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// ValidationError wraps ErrValidation with the offending field when the
// remote layer reports one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Retryable reports whether an error may be retried once at the orchestrator
// level. Auth errors are retried only after a credential refresh; validation
// and not-found errors are never retried.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrTimeout)
}
