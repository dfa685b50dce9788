package langprompt

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType tags an *Error with the failure category it represents.
// Categories mirror the service's HTTP error contract plus the client-side
// failure modes (network, timeout, configuration, argument).
type ErrorType string

const (
	// ErrorTypeAuthentication corresponds to HTTP 401.
	ErrorTypeAuthentication ErrorType = "Authentication"
	// ErrorTypePermission corresponds to HTTP 403.
	ErrorTypePermission ErrorType = "Permission"
	// ErrorTypeNotFound corresponds to HTTP 404 and empty lookup payloads.
	ErrorTypeNotFound ErrorType = "NotFound"
	// ErrorTypeValidation corresponds to HTTP 422 and client-side content checks.
	ErrorTypeValidation ErrorType = "Validation"
	// ErrorTypeRateLimit corresponds to HTTP 429; RetryAfter may be set.
	ErrorTypeRateLimit ErrorType = "RateLimit"
	// ErrorTypeServer corresponds to HTTP 5xx.
	ErrorTypeServer ErrorType = "Server"
	// ErrorTypeAPI is the catch-all for any other non-2xx status.
	ErrorTypeAPI ErrorType = "API"
	// ErrorTypeNetwork is a transport-level failure (no HTTP status).
	ErrorTypeNetwork ErrorType = "Network"
	// ErrorTypeTimeout is a request timeout (no HTTP status).
	ErrorTypeTimeout ErrorType = "Timeout"
	// ErrorTypeConfiguration is a construction-time configuration failure.
	ErrorTypeConfiguration ErrorType = "Configuration"
	// ErrorTypeArgument is a caller precondition violation, raised before any
	// network interaction and never retried.
	ErrorTypeArgument ErrorType = "Argument"
)

// Error is the single error type surfaced by this SDK. Callers dispatch on
// Type via errors.Is with one of the sentinel values below, or errors.As to
// reach Code, Details, StatusCode and RetryAfter.
type Error struct {
	Type       ErrorType
	Message    string
	Code       string
	Details    map[string]any
	StatusCode int
	RetryAfter time.Duration
	Cause      error
}

// Sentinel values for errors.Is comparisons by type.
var (
	ErrAuthentication = &Error{Type: ErrorTypeAuthentication}
	ErrPermission     = &Error{Type: ErrorTypePermission}
	ErrNotFound       = &Error{Type: ErrorTypeNotFound}
	ErrValidation     = &Error{Type: ErrorTypeValidation}
	ErrRateLimit      = &Error{Type: ErrorTypeRateLimit}
	ErrServer         = &Error{Type: ErrorTypeServer}
	ErrNetwork        = &Error{Type: ErrorTypeNetwork}
	ErrTimeout        = &Error{Type: ErrorTypeTimeout}
	ErrConfiguration  = &Error{Type: ErrorTypeConfiguration}
	ErrArgument       = &Error{Type: ErrorTypeArgument}
)

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("langprompt: %s: %s", e.Type, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.Code)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by Type so errors.Is(err, ErrNotFound) works regardless
// of message or status details.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

// statusErrorType maps a non-2xx HTTP status to the error type it raises.
// Exact statuses first, then the 5xx band, then the generic catch-all.
var statusErrorType = map[int]ErrorType{
	401: ErrorTypeAuthentication,
	403: ErrorTypePermission,
	404: ErrorTypeNotFound,
	422: ErrorTypeValidation,
	429: ErrorTypeRateLimit,
}

func errorTypeForStatus(status int) ErrorType {
	if t, ok := statusErrorType[status]; ok {
		return t
	}
	if status >= 500 {
		return ErrorTypeServer
	}
	return ErrorTypeAPI
}

// IsTransient reports whether err represents a failure that might succeed on
// retry: network faults, timeouts, server errors (5xx) and rate limiting
// (429). Client errors, validation, configuration and argument failures are
// permanent.
func IsTransient(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

func argumentError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeArgument, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...), StatusCode: 404}
}

func configurationError(code, format string, args ...any) *Error {
	return &Error{Type: ErrorTypeConfiguration, Code: code, Message: fmt.Sprintf(format, args...)}
}
