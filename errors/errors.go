package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the unified harness error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context such as the field or index that differed.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// AssertionFailed creates an error for an expected/actual mismatch on field.
func AssertionFailed(field string, expected, actual any) *AppError {
	return &AppError{
		Code:    ErrCodeAssertionFailed,
		Message: fmt.Sprintf("%s: expected %v, got %v", field, expected, actual),
		Details: map[string]any{"field": field, "expected": expected, "actual": actual},
	}
}

// Timeout creates an error for a bounded wait that elapsed.
func Timeout(operation string, after time.Duration) *AppError {
	return &AppError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("%s did not complete within %s", operation, after),
		Details: map[string]any{"operation": operation, "timeout": after.String()},
	}
}

// ProtocolViolation creates an error for an action that is illegal in the current state.
func ProtocolViolation(action, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeProtocolViolation,
		Message: fmt.Sprintf("%s is not allowed: %s", action, reason),
		Details: map[string]any{"action": action},
	}
}

// OutOfRange creates an error for an index beyond a log of the given length.
func OutOfRange(index, length int) *AppError {
	return &AppError{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("index %d out of range, %d events recorded", index, length),
		Details: map[string]any{"index": index, "length": length},
	}
}

// InvalidConfig creates an error for a configuration field that failed validation.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
		Details: details,
	}
}

// Internal creates an error for an unexpected harness failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "an unexpected harness error occurred",
		Cause:   cause,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError.
// nil stays nil, AppErrors anywhere in the chain pass through, anything else becomes Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
