// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Parsing and categorization errors.
	ErrNoAmountFound          = errors.New("no amount found")
	ErrNoCategoryAvailable    = errors.New("no category available")
	ErrCategorizerUnavailable = errors.New("external categorizer unavailable")
	ErrCacheWrite             = errors.New("category mapping write failed")
	ErrUnknownChannel         = errors.New("channel is not linked to a workspace")
	ErrPendingNotFound        = errors.New("pending transaction not found or already processed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCategorizationFailed   = errors.New("categorization failed")

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

// IsRetryable determines if an error should trigger a retry.
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
