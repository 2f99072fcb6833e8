// Package errors provides the structured error types shared by the skeleton,
// dendrogram and storage packages.
//
// Every failure carries a machine-readable Code so callers can branch on the
// kind of problem without string matching:
//
//	tree, err := skeleton.DecodePrecomputed(buf)
//	if errors.Is(err, errors.ErrCodeUndersizedBuffer) {
//	    // the buffer is shorter than its own header declares
//	}
//
// All codes describe malformed static input. None of them are transient, so
// there is no retry classification.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Construction errors
	ErrCodeShapeMismatch     Code = "SHAPE_MISMATCH"
	ErrCodeInvalidTopology   Code = "INVALID_TOPOLOGY"
	ErrCodeInvalidBlockShape Code = "INVALID_BLOCK_SHAPE"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"

	// Codec errors
	ErrCodeFormat           Code = "FORMAT_ERROR"
	ErrCodeTruncatedBuffer  Code = "TRUNCATED_BUFFER"
	ErrCodeUndersizedBuffer Code = "UNDERSIZED_BUFFER"

	// Storage errors
	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for the first *Error and compares its code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
