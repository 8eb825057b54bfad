package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is an application-specific error type
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wraps an error with a code and message
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// CodeOf returns the AppError code carried by err, or CodeInternal
// when err is not an AppError
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given AppError code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Error code constants
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInvalidArg = "INVALID_ARGUMENT"
	CodeExternal   = "EXTERNAL_ERROR"
	CodeConflict   = "CONFLICT"         // Resource already exists (UNIQUE violation)
	CodeDependency = "DEPENDENCY_ERROR" // Foreign key constraint violation
)

// Supplier fetch outcomes. All of these are retryable with a forced re-ingest.
const (
	CodeFetchNotFound    = "FETCH_NOT_FOUND"
	CodeFetchUnavailable = "FETCH_UNAVAILABLE"
	CodeNoTranscript     = "NO_TRANSCRIPT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeFetchTimeout     = "FETCH_TIMEOUT"
)

// Pipeline, review, and query error codes
const (
	CodeMalformedTranscript = "MALFORMED_TRANSCRIPT" // bad offsets or empty text from supplier
	CodeEmptyQuery          = "EMPTY_QUERY"          // query has no tokens after tokenization
	CodeInvalidTransition   = "INVALID_TRANSITION"   // review state machine violation
	CodeIndexInconsistency  = "INDEX_INCONSISTENCY"  // index disagrees with the approved corpus
)

// IsFetchError reports whether code is one of the supplier fetch outcomes
func IsFetchError(code string) bool {
	switch code {
	case CodeFetchNotFound, CodeFetchUnavailable, CodeNoTranscript, CodeRateLimited, CodeFetchTimeout:
		return true
	}
	return false
}
