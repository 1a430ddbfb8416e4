package apperr

import "errors"

// Kind classifies a failure the way callers need to react to it.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindRateLimit     Kind = "rate_limit_error"
	KindProvider      Kind = "provider_error"
	KindTimeout       Kind = "timeout_error"
	KindConnection    Kind = "connection_error"
	KindConfiguration Kind = "configuration_error"
	KindAuth          Kind = "auth_error"
	KindConflict      Kind = "conflict_error"
	KindUnknown       Kind = "unknown_error"
)

// Error is the structured result returned across the service boundary.
// Message is safe to show to callers; Err carries internal detail for logs.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int // seconds, only set for rate_limit_error
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func RateLimit(message string, retryAfter int) *Error {
	return &Error{Kind: KindRateLimit, Message: message, RetryAfter: retryAfter}
}

// KindOf extracts the Kind from err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As returns the tagged error inside err, wrapping untagged errors as unknown.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Message: "internal error", Err: err}
}
