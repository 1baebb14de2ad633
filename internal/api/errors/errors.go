package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "whisper-scribe/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindBadRequest         ErrorKind = "bad_request"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindTooLarge           ErrorKind = "too_large"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewTooLargeError creates a payload too large error
func NewTooLargeError(limitBytes int64) *APIError {
	return &APIError{
		Kind:    KindTooLarge,
		Message: fmt.Sprintf("upload exceeds %d MiB", limitBytes/(1024*1024)),
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// FromDomain maps a pipeline error onto an API error. The message of the
// original error is kept since it carries the detail a caller can act on.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, apperrors.ErrDecode):
		return &APIError{Kind: KindValidation, Message: err.Error(), Details: map[string]string{"file": "could not be decoded as audio"}}
	case stderrors.Is(err, apperrors.ErrInvalidChunkSize):
		return &APIError{Kind: KindValidation, Message: err.Error(), Details: map[string]string{"file": "cannot be split under the upload limit"}}
	case stderrors.Is(err, apperrors.ErrCancelled):
		return &APIError{Kind: KindConflict, Message: err.Error()}
	case stderrors.Is(err, apperrors.ErrRemoteTranscription):
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error()}
	case stderrors.Is(err, apperrors.ErrMissingCredential):
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error()}
	default:
		return NewInternalError("Internal server error")
	}
}
