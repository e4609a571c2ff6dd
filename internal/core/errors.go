// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Reason returns the short code of a structured error, used as the
// fallback reason in signal artifacts.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return "UNKNOWN"
}

// Predefined errors
var (
	// Evaluation errors
	ErrSchema              = &Error{Code: "SCHEMA_ERROR", Message: "required fields missing"}
	ErrInsufficientHistory = &Error{Code: "INSUFFICIENT_HISTORY", Message: "fewer bars than required lookback"}
	ErrComputation         = &Error{Code: "COMPUTATION_ERROR", Message: "indicator computation failed"}
	ErrLookaheadForbidden  = &Error{Code: "LOOKAHEAD_FORBIDDEN", Message: "lookahead filter outside research mode"}
	ErrStrategyNotFound    = &Error{Code: "STRATEGY_NOT_FOUND", Message: "strategy not registered"}

	// Simulation errors
	ErrMissingReferenceData = &Error{Code: "MISSING_REFERENCE_DATA", Message: "signal timestamp not in price index"}

	// Data errors
	ErrIO     = &Error{Code: "IO_ERROR", Message: "reading or writing data failed"}
	ErrNoData = &Error{Code: "NO_DATA", Message: "no data available"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
