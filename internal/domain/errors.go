package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common domain errors used across the application.
var (
	// ErrValidationFailed is returned when a domain entity fails validation.
	// ValidationErrors unwraps to it.
	ErrValidationFailed = errors.New("validation failed")

	// ErrMissingField is returned when a required field is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidEnumValue is returned when a string is not a member of an enumeration.
	ErrInvalidEnumValue = errors.New("invalid enum value")

	// ErrInvalidDateFormat is returned when a timestamp cannot be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidNumber is returned when a numeric field holds a non-numeric value.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidFilterValue is returned when a list filter holds an unusable value.
	ErrInvalidFilterValue = errors.New("invalid filter value")

	// ErrInvalidValue is returned for values that are well-formed but not acceptable,
	// such as an over-long title or an explicit null for a non-nullable field.
	ErrInvalidValue = errors.New("invalid value")

	// ErrOwnerNotAllowed is returned when a request tries to choose a task owner.
	// The owner always comes from the authenticated principal.
	ErrOwnerNotAllowed = errors.New("task owner cannot be set by the client")

	// ErrUnauthenticated is returned when an operation requires an authenticated user.
	ErrUnauthenticated = errors.New("authentication required")
)

// FieldError describes a client error tied to a single input field. Its
// message is safe to show to API clients. It unwraps to one of the sentinel
// errors above so callers can branch with errors.Is.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// NewFieldError builds a FieldError wrapping sentinel.
func NewFieldError(field string, sentinel error, format string, args ...any) *FieldError {
	return &FieldError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects per-field validation messages for an entity.
type ValidationErrors struct {
	Fields map[string][]string
}

// Add records a message for field.
func (e *ValidationErrors) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *ValidationErrors) Empty() bool {
	return len(e.Fields) == 0
}

// Error implements the error interface with a stable, field-sorted message.
func (e *ValidationErrors) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], "; "))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}
