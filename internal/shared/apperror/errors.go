// Package apperror defines the error taxonomy shared by every feature.
// Usecases raise these errors at the point of detection and the HTTP boundary
// translates each Kind to a fixed status code.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure.
type Kind string

const (
	// KindNotFound indicates that a referenced id does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict indicates a uniqueness or concurrency violation.
	KindConflict Kind = "CONFLICT"
	// KindBadRequest indicates an invalid field value or an illegal state transition.
	KindBadRequest Kind = "BAD_REQUEST"
	// KindUnauthorized indicates an authenticated caller without sufficient privilege.
	KindUnauthorized Kind = "UNAUTHORIZED"
	// KindInvalidCredentials indicates a failed login or refresh.
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	// KindTooManyRequests indicates that a rate limit was exceeded.
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
)

// Error is a classified error carrying a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error with the same Kind and Message.
// This lets package-level sentinels be compared with errors.Is after wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound creates a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// Conflict creates a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// BadRequest creates a KindBadRequest error.
func BadRequest(format string, args ...any) *Error {
	return Newf(KindBadRequest, format, args...)
}

// Unauthorized creates a KindUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return Newf(KindUnauthorized, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain.
// The second return value is false when err carries no classification.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// MessageOf returns the client-safe message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
