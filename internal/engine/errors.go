// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	// ErrMalformedPayload marks an intercepted body that is not a JSON tree
	ErrMalformedPayload = errors.New("malformed review payload")
	// ErrPayloadTooSmall marks an intercepted body at or below the size gate
	ErrPayloadTooSmall = errors.New("payload below size threshold")
	// ErrSessionSealed is returned for responses that arrive after scrolling stopped
	ErrSessionSealed = errors.New("scrape session sealed")
	ErrPoolClosed    = errors.New("browser pool is closed")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNavigation ErrorCode = "NAVIGATION"
	ErrCodeTimeout    ErrorCode = "TIMEOUT"
	ErrCodeValidation ErrorCode = "VALIDATION"
	ErrCodeBrowser    ErrorCode = "BROWSER"
	ErrCodeInternal   ErrorCode = "INTERNAL"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]any
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// Retryable reports whether the operation that produced e may be retried
func (e *EngineError) Retryable() bool {
	return e.Retry
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]any),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first EngineError in err's chain, or
// INTERNAL when there is none.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ErrCodeInternal
}

// navigationError classifies a failed navigation as TIMEOUT or NAVIGATION
func navigationError(url string, err error) *EngineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewEngineError(ErrCodeTimeout, "navigation timed out", err).
			WithRetry().
			WithDetail("url", url)
	}
	return NewEngineError(ErrCodeNavigation, "navigation failed", err).
		WithRetry().
		WithDetail("url", url)
}
