// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters and configuration
//   - Input data errors (200-299): Missing rule/data files, malformed conditions
//   - Simulation errors (300-399): Insufficient windows, empty signal/trade sets
//   - Walk-forward errors (400-499): Period generation and execution errors
//   - Portfolio errors (500-599): Degenerate statistics, unusable asset sets
//   - Results store errors (600-699): Run persistence and export errors
//   - Engine errors (700-799): Engine setup and pre-run check errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataFileNotFound, "no data file for asset %s", asset)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeResultsQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDataFileNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientWindowError represents a scan window too short to satisfy the
// lookback required by a rule set. It is a valid empty result, not a failure:
// callers log it and exclude the unit from aggregation.
type InsufficientWindowError struct {
	Required int    // Minimum rows required (max lag + 2)
	Actual   int    // Actual rows available
	Asset    string // Optional: asset context
	Message  string // Human-readable message
}

// NewInsufficientWindowError creates a new InsufficientWindowError.
func NewInsufficientWindowError(required, actual int, asset, message string) *InsufficientWindowError {
	return &InsufficientWindowError{
		Required: required,
		Actual:   actual,
		Asset:    asset,
		Message:  message,
	}
}

// NewInsufficientWindowErrorf creates a new InsufficientWindowError with a formatted message.
func NewInsufficientWindowErrorf(required, actual int, asset, format string, args ...any) *InsufficientWindowError {
	return &InsufficientWindowError{
		Required: required,
		Actual:   actual,
		Asset:    asset,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientWindowError) Error() string {
	return e.Message
}

// IsInsufficientWindowError checks if an error is an InsufficientWindowError.
// It uses errors.As to check the error chain.
func IsInsufficientWindowError(err error) bool {
	var insufficientErr *InsufficientWindowError

	return errors.As(err, &insufficientErr)
}
