// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Inference service errors.
	ErrNotFound         = errors.New("not found")
	ErrUnavailable      = errors.New("service unavailable")
	ErrBadRequest       = errors.New("bad request")
	ErrUnexpectedFormat = errors.New("unexpected response format")

	// Storage errors.
	ErrNoSnapshot      = errors.New("no snapshot stored")
	ErrStorageDisabled = errors.New("storage disabled")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError is a request rejected locally before it was sent. It
// matches ErrBadRequest, so callers can tell it apart from a rejection by
// the service only with errors.As.
type ValidationError struct {
	Err error
}

// NewValidationError wraps err as a local validation failure.
func NewValidationError(err error) error {
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return ErrBadRequest.Error() + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrBadRequest as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// IsValidation reports whether err carries a local validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

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

// UserMessage returns the user-facing message carried by err, or fallback
// if err carries none.
func UserMessage(err error, fallback string) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return fallback
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
