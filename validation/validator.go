package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/rxscenario/errors"
)

// Validator collects validation errors for checks that struct tags cannot express.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an INVALID_CONFIG AppError if there are validation errors, nil otherwise.
// A single failure carries its field name; several are listed under "fields".
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s %s", e.Field, e.Message)
	}

	field := ""
	if len(v.errors) == 1 {
		field = v.errors[0].Field
	}
	return errors.InvalidConfig(field, strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// Positive checks that a duration is greater than zero.
func (v *Validator) Positive(field string, value time.Duration) *Validator {
	return v.Check(value > 0, field, "must be positive")
}

// NonNegative checks that a duration is zero or greater.
func (v *Validator) NonNegative(field string, value time.Duration) *Validator {
	return v.Check(value >= 0, field, "must not be negative")
}

// OneOf checks that value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}
