// Package inertiavalidationerrors provides map-based validation errors.
package inertiavalidationerrors

import (
	"encoding/gob"
	"maps"
	"slices"

	"go.inout.gg/inertiacore"
)

var (
	_ error                         = (*MapError)(nil)
	_ inertiacore.ValidationErrorer = (*MapError)(nil)
)

//nolint:gochecknoinits
func init() {
	gob.Register(MapError{})
}

// MapError is a map of key-value pairs that can be used as validation errors.
// Key is the field name and value is the error message.
type MapError map[string]string

// ValidationErrors returns the errors ordered by field name.
func (m MapError) ValidationErrors() []inertiacore.ValidationError {
	errors := make([]inertiacore.ValidationError, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		errors = append(errors, inertiacore.NewValidationError(k, m[k]))
	}

	return errors
}

func (m MapError) Error() string { return "validation errors" }
func (m MapError) Len() int      { return len(m) }
