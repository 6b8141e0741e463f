// Package apperr defines the error kinds surfaced by the fleet core.
//
// Every kind matches a sentinel through errors.Is so callers can branch on
// the kind without caring about the concrete type:
//
//	if errors.Is(err, apperr.ErrInvalidReading) { ... }
package apperr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an operation targeting an identity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition marks an operation invoked from the wrong lifecycle state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrInvalidReading marks an end hour-meter lower than the start reading.
	ErrInvalidReading = errors.New("invalid hour-meter reading")
	// ErrConflict marks a machine hour-meter advanced by someone else since it was observed.
	ErrConflict = errors.New("hour-meter conflict")
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + " " + e.Reason }

// Field builds a FieldError.
func Field(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Required builds the FieldError for an absent required field.
func Required(field string) error {
	return Field(field, "is required")
}

// ValidationError aggregates every field problem found on one entity.
type ValidationError struct {
	Entity string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Entity, e.Err)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields lists the names of the rejected fields in the order they were found.
func (e *ValidationError) Fields() []string {
	var fields []string
	for _, err := range multierr.Errors(e.Err) {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Validation combines the non-nil errors into a ValidationError for entity.
// It returns nil when every error is nil.
func Validation(entity string, errs ...error) error {
	err := multierr.Combine(errs...)
	if err == nil {
		return nil
	}
	return &ValidationError{Entity: entity, Err: err}
}

// NotFoundError reports a missing identity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PreconditionError reports an operation attempted from the wrong state.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// Precondition builds a PreconditionError.
func Precondition(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidReadingError reports an end reading below the start reading.
type InvalidReadingError struct {
	Start float64
	End   float64
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("end hour-meter %.1f is lower than start hour-meter %.1f", e.End, e.Start)
}

func (e *InvalidReadingError) Is(target error) bool { return target == ErrInvalidReading }

// ConflictError reports a compare-and-set failure on a machine hour-meter.
type ConflictError struct {
	MachineID string
	Expected  float64
	Actual    float64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("machine %q hour-meter moved from %.1f to %.1f since the shift was opened",
		e.MachineID, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
