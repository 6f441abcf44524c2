package errs

import (
	"errors"
	"net/http"
)

// Code classifies a failure for the HTTP boundary.
type Code string

const (
	ValidationError Code = "validation_error"
	NotFound        Code = "not_found"
	StoreError      Code = "store_error"
)

// Error is a coded application error.
type Error struct {
	Code    Code
	Message string
	// Fields maps a request field name to its validation message.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Invalid creates a validation error carrying per-field messages.
func Invalid(message string, fields map[string]string) error {
	return &Error{Code: ValidationError, Message: message, Fields: fields}
}

// CodeOf returns the error code. Uncoded errors count as store errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) && coded.Code != "" {
		return coded.Code
	}
	return StoreError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns a user-facing message. Store errors never expose the
// driver message since it may contain hosts or credentials.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) && coded.Code != StoreError && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}

// FieldsOf returns the field messages of a validation error, or nil.
func FieldsOf(err error) map[string]string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Fields
	}
	return nil
}

// HTTPStatus maps error code to HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case ValidationError:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
