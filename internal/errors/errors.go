// Package errors provides standardized domain errors with codes for the
// OFAC monitor.
//
// Services return typed errors; handlers map them to HTTP statuses via
// the code:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeValidation        Code = "VALIDATION"
	CodeInternal          Code = "INTERNAL"
	CodeMalformedSnapshot Code = "MALFORMED_SNAPSHOT"
	CodeInvalidThresholds Code = "INVALID_THRESHOLDS"
	CodeFetchFailed       Code = "FETCH_FAILED"
	CodeExtractionFailed  Code = "EXTRACTION_FAILED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeValidation, CodeInvalidThresholds:
		return http.StatusBadRequest
	case CodeFetchFailed, CodeExtractionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error. Matches if target is an
// *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Wrap returns a copy of the error with an underlying cause attached.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists     = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrMalformedSnapshot = &Error{Code: CodeMalformedSnapshot, Message: "malformed snapshot"}
	ErrInvalidThresholds = &Error{Code: CodeInvalidThresholds, Message: "invalid threshold config"}
	ErrFetchFailed       = &Error{Code: CodeFetchFailed, Message: "fetch failed"}
	ErrExtractionFailed  = &Error{Code: CodeExtractionFailed, Message: "extraction failed"}
)

// Constructors for common error types.

// NotFound creates a not-found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// AlreadyExists creates an already-exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Internal creates an internal error wrapping a cause.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}

// MalformedSnapshot creates a snapshot ingestion error. Fatal to the
// refresh attempt only; the previous snapshot keeps serving.
func MalformedSnapshot(msg string) *Error {
	return &Error{Code: CodeMalformedSnapshot, Message: msg}
}

// InvalidThresholds creates a threshold configuration error. Fatal at
// startup; the pipeline must not run with unordered thresholds.
func InvalidThresholds(msg string) *Error {
	return &Error{Code: CodeInvalidThresholds, Message: msg}
}

// FetchFailed creates a transient source fetch error.
func FetchFailed(msg string, cause error) *Error {
	return &Error{Code: CodeFetchFailed, Message: msg, cause: cause}
}

// ExtractionFailed creates a transient extraction error.
func ExtractionFailed(msg string, cause error) *Error {
	return &Error{Code: CodeExtractionFailed, Message: msg, cause: cause}
}
