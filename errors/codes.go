package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Scenario outcome errors
const (
	// ErrCodeAssertionFailed indicates an expected value did not match the recording.
	ErrCodeAssertionFailed ErrorCode = "ASSERTION_FAILED"
	// ErrCodeTimeout indicates a bounded wait elapsed before its condition held.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeOutOfRange indicates an index beyond the recorded log.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"
)

// Usage errors
const (
	// ErrCodeProtocolViolation indicates an action issued in the wrong phase or on a terminal source.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeInvalidConfig indicates a configuration value failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected harness failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var fatalCodes = map[ErrorCode]bool{
	ErrCodeAssertionFailed:   true,
	ErrCodeTimeout:           true,
	ErrCodeOutOfRange:        true,
	ErrCodeProtocolViolation: true,
	ErrCodeInvalidConfig:     true,
	ErrCodeInternal:          true,
}

// IsFatalCode reports whether a failure with this code must stop the scenario.
// Every code the harness raises today is fatal; none are retried.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
