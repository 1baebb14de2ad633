package errors

import (
	"fmt"
)

// Domain error kinds surfaced to the front ends
var (
	ErrDecode              = New("audio could not be decoded")
	ErrInvalidChunkSize    = New("invalid chunk size")
	ErrRemoteTranscription = New("remote transcription failed")
	ErrMissingCredential   = New("missing API credential")
	ErrCancelled           = New("transcription cancelled")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
	kind    *Error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// WithKind tags err with one of the sentinel kinds above. The result matches
// both the kind and the original cause under errors.Is.
func WithKind(kind *Error, err error, format string, args ...interface{}) error {
	msg := kind.message
	if format != "" {
		msg = kind.message + ": " + fmt.Sprintf(format, args...)
	}
	return &Error{
		message: msg,
		cause:   err,
		kind:    kind,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.kind != nil && e.kind == t {
		return true
	}
	return e.message == t.message
}

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return Newf("%s out of range (must be between %v and %v)", field, min, max)
}
