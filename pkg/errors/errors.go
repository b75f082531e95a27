// Package errors provides structured error types for snaplink.
//
// Two families matter to the engine:
//   - ProgrammingError (code INTERNAL_INVARIANT): an invariant of the block
//     model was violated by a caller, for example inserting a connection into
//     the spatial index twice or moving a block that was never rendered.
//     The current operation must be aborted; continuing would corrupt the
//     index.
//   - ValidationRejection (code VALIDATION_REJECTED): a field validator
//     refused a proposed value. This is expected and recoverable.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "block %s not found", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing block
//	}
//
//	// Invariant violations
//	return errors.Invariant("connection %s already indexed", c)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"
	ErrCodeInvalidName       Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeUnknownBlockType Code = "UNKNOWN_BLOCK_TYPE"

	// Editing errors
	ErrCodeValidation   Code = "VALIDATION_REJECTED"
	ErrCodeNotEditable  Code = "NOT_EDITABLE"
	ErrCodeInvalidState Code = "INVALID_STATE"

	// Internal errors
	ErrCodeInvariant   Code = "INTERNAL_INVARIANT"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Invariant creates a ProgrammingError.
func Invariant(format string, args ...any) *Error {
	return New(ErrCodeInvariant, format, args...)
}

// Rejected creates a ValidationRejection for the named field.
func Rejected(field, value string) *Error {
	return New(ErrCodeValidation, "field %s rejected value %q", field, value)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsProgrammingError reports whether err signals a violated invariant.
func IsProgrammingError(err error) bool { return Is(err, ErrCodeInvariant) }

// IsRejection reports whether err is a validator rejection.
func IsRejection(err error) bool { return Is(err, ErrCodeValidation) }

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
