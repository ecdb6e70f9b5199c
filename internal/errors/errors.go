package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NotFound indicates a root, repository, reference, or file is absent
	NotFound ErrorCode = "NOT_FOUND"
	// AuthRequired indicates a private repository needs a valid credential
	AuthRequired ErrorCode = "AUTH_REQUIRED"
	// FetchFailed indicates a remote fetch failed after retries
	FetchFailed ErrorCode = "FETCH_FAILED"
	// ParseError indicates a file failed to parse (per-file, non-fatal)
	ParseError ErrorCode = "PARSE_ERROR"
	// SymbolNotFound indicates no definition matches the requested symbol
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// LineOutOfRange indicates a line number exceeds the file's length
	LineOutOfRange ErrorCode = "LINE_OUT_OF_RANGE"
	// NotUnderVersionControl indicates the tree has no git history
	NotUnderVersionControl ErrorCode = "NOT_UNDER_VERSION_CONTROL"
	// HistoryUnavailable indicates the clone omits the history blame needs
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// Timeout indicates the query deadline was exceeded
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ScoutError represents a scout error with a stable code and message
type ScoutError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new ScoutError
func New(code ErrorCode, message string) *ScoutError {
	return &ScoutError{Code: code, Message: message}
}

// Newf creates a new ScoutError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ScoutError {
	return &ScoutError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new ScoutError wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *ScoutError {
	return &ScoutError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *ScoutError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ScoutError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ScoutError) WithDetails(details interface{}) *ScoutError {
	e.Details = details
	return e
}

// CodeOf returns the stable code for an error.
// Context cancellation classifies as Timeout; anything else that is not
// a ScoutError classifies as InternalError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	return InternalError
}

// IsCode reports whether err carries the given stable code
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
