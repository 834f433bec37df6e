// Package errors provides structured error types for traitstack.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the preview server and the editor
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The compositing engine surfaces five domain conditions:
//   - NAME_CONFLICT: a rename target already exists in the layer
//   - STALE_SELECTION: an override pointed at an asset removed by a refresh
//   - NO_BACKGROUND: placement or collage export attempted before a background exists
//   - EMPTY_LAYER: a layer has zero available assets
//   - DECODE_FAILURE: an asset's bytes could not be decoded as an image
//
// None of them is fatal. NAME_CONFLICT and NO_BACKGROUND refuse the operation,
// STALE_SELECTION, EMPTY_LAYER and DECODE_FAILURE are reported as warnings.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNameConflict, "%s already exists in %s", name, layer)
//	if errors.Is(err, errors.ErrCodeNameConflict) {
//	    // re-prompt
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecodeFailure, origErr, "decode %s/%s", layer, name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine conditions
	ErrCodeNameConflict   Code = "NAME_CONFLICT"
	ErrCodeStaleSelection Code = "STALE_SELECTION"
	ErrCodeNoBackground   Code = "NO_BACKGROUND"
	ErrCodeEmptyLayer     Code = "EMPTY_LAYER"
	ErrCodeDecodeFailure  Code = "DECODE_FAILURE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidLayer Code = "INVALID_LAYER"
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As is errors.As from the standard library, re-exported so callers need a
// single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

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

// Warnings collects non-fatal conditions raised during an operation.
// A nil Warnings is valid and empty.
type Warnings []*Error

// Add appends w when it is non-nil.
func (ws *Warnings) Add(w *Error) {
	if w != nil {
		*ws = append(*ws, w)
	}
}

// Count returns how many warnings carry the given code.
func (ws Warnings) Count(code Code) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}
