// Package common holds the error types, retry loop and logger setup shared
// by the finlens packages.
package common

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrModelUnavailable is returned when the local model server cannot be reached.
	ErrModelUnavailable = errors.New("model unavailable")

	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message that is safe to return to API clients.
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

// NewUserError wraps err with a client-facing message.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the user-facing message carried by err, or fallback
// when err does not wrap a UserError.
func UserMessage(err error, fallback string) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return fallback
}

// IsRetryable reports whether err is worth another attempt: quota and
// deadline errors are, as is anything marked with Retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
