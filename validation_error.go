package inertiacore

import (
	"encoding/gob"
	"net/http"

	"go.inout.gg/inertiacore/internal/inertiaheader"
)

var (
	_ error = (*validationError)(nil)
	_ error = (*ValidationErrors)(nil)

	_ ValidationError   = (*validationError)(nil)
	_ ValidationErrorer = (*validationError)(nil)
	_ ValidationErrorer = (*ValidationErrors)(nil)
)

const (
	DefaultErrorBag = ""

	// errorsPropKey is the prop carrying validation errors.
	errorsPropKey = "errors"
)

//nolint:gochecknoinits
func init() {
	gob.Register(&validationError{}) //nolint:exhaustruct
	gob.Register(ValidationErrors{})
}

// ValidationError represents a single field validation failure.
type ValidationError interface {
	// Field returns the name of the field that failed validation.
	Field() string

	// Error returns the human-readable error message describing the validation failure.
	Error() string
}

// ValidationErrorer is a collection of validation errors that can be sent to the client.
type ValidationErrorer interface {
	error

	// ValidationErrors returns all validation errors in the collection.
	ValidationErrors() []ValidationError

	// Len returns the number of validation errors.
	Len() int
}

type validationError struct {
	Field_   string //nolint:revive
	Message_ string //nolint:revive
}

// NewValidationError creates a validation error for a specific field with a message.
func NewValidationError(field string, message string) ValidationErrorer {
	return &validationError{Field_: field, Message_: message}
}

func (err *validationError) Error() string                       { return err.Message_ }
func (err *validationError) Field() string                       { return err.Field_ }
func (err *validationError) ValidationErrors() []ValidationError { return []ValidationError{err} }
func (err *validationError) Len() int                            { return 1 }

// ValidationErrors is a list of validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string                       { return "validation errors" }
func (errs ValidationErrors) ValidationErrors() []ValidationError { return errs }
func (errs ValidationErrors) Len() int                            { return len(errs) }

// ErrorBagFromRequest extracts the error bag name from the X-Inertia-Error-Bag header.
//
// Returns the default error bag (empty string) if the header is not present.
func ErrorBagFromRequest(r *http.Request) string {
	return r.Header.Get(inertiaheader.HeaderXInertiaErrorBag)
}

// makeValidationErrors builds the always-included "errors" prop.
// Errors of a named bag are nested under the bag name.
func makeValidationErrors(errorers []ValidationErrorer, errorBag string) Prop {
	m := make(map[string]string)

	for _, errorer := range errorers {
		for _, err := range errorer.ValidationErrors() {
			m[err.Field()] = err.Error()
		}
	}

	if errorBag != DefaultErrorBag && len(m) > 0 {
		return NewAlways(errorsPropKey, map[string]map[string]string{errorBag: m})
	}

	return NewAlways(errorsPropKey, m)
}
