// Package exception provides custom error types and error handling utilities for
// the bulk-operation orchestrator. It standardizes errors that occur while
// submitting, polling and aggregating backend jobs, allowing them to be
// categorized by the retry policies of the polling engine.
package exception

import (
	"errors"
	"fmt"
	"strings"
)

// OrchestrationError is a custom error type for failures inside the orchestrator.
// It holds the module where the error occurred, a message, the wrapped original
// error, and a flag indicating whether the error is a transient transport
// failure that silent polling may retry.
type OrchestrationError struct {
	// Module indicates the module where the error occurred (e.g., "splitter", "poller", "store").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is a transient failure.
	isRetryable bool
}

// NewOrchestrationError creates a new OrchestrationError instance.
//
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap (may be nil).
// isRetryable: Whether this error is a transient failure that may be retried.
func NewOrchestrationError(module, message string, originalErr error, isRetryable bool) *OrchestrationError {
	return &OrchestrationError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
	}
}

// NewOrchestrationErrorf creates a new retryable-false OrchestrationError using a format string.
func NewOrchestrationErrorf(module, format string, a ...interface{}) *OrchestrationError {
	return &OrchestrationError{
		Module:  module,
		Message: fmt.Sprintf(format, a...),
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *OrchestrationError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *OrchestrationError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is a transient failure.
func (e *OrchestrationError) IsRetryable() bool {
	return e.isRetryable
}

// ErrJobNotFound is a sentinel error indicating that the backend no longer
// recognizes a job id (expired or purged). A persisted handle referencing such
// a job is stale and must be treated as terminal-failed on the resume check.
var ErrJobNotFound = errors.New("job not found")

// IsJobNotFound determines if an error indicates an unknown job id.
func IsJobNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrJobNotFound)
}

// IsTemporary determines if an error is temporary (e.g., network error, backend
// briefly unreachable). Silent background polling retries temporary errors on
// the next tick; interactive polling surfaces every error immediately.
// If the error is an OrchestrationError, its IsRetryable flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}

// ExtractErrorMessage extracts the error message string from an error.
// For OrchestrationError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.Message
	}
	return err.Error()
}
