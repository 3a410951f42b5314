// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPoolClosed     = errors.New("browser pool is closed")
	ErrAcquireTimeout = errors.New("timeout waiting for available browser")
)

// ErrorCode classifies renderer failures
type ErrorCode string

const (
	ErrCodeNavigation ErrorCode = "NAVIGATION"
	ErrCodeTimeout    ErrorCode = "TIMEOUT"
	ErrCodeBrowser    ErrorCode = "BROWSER"
	ErrCodePoolClosed ErrorCode = "POOL_CLOSED"
)

// Error wraps a renderer failure with the URL it concerned
type Error struct {
	Code       ErrorCode
	URL        string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.URL, e.Underlying)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Underlying)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, otherwise defers to the underlying error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// Retryable reports whether trying the same operation again may succeed.
func (e *Error) Retryable() bool {
	if errors.Is(e.Underlying, context.Canceled) {
		return false
	}
	return e.Code == ErrCodeNavigation || e.Code == ErrCodeTimeout
}

func newError(code ErrorCode, url string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) && code == ErrCodeNavigation {
		code = ErrCodeTimeout
	}
	return &Error{Code: code, URL: url, Underlying: err}
}
