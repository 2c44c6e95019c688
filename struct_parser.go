package inertiacore

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const TagInertia = "inertia"

//nolint:gochecknoglobals
var (
	propTypeLazy   = "lazy"
	propTypeAlways = "always"

	propDiscard    = "-"
	propOmitEmpty  = "omitempty"
	propConcurrent = "concurrent"
)

var lazyType = reflect.TypeFor[Lazy]() //nolint:gochecknoglobals

// ParseStruct converts a struct into a Props collection using struct tags.
// It expects a struct pointer with JSON-encodable fields.
//
// Only fields tagged with "inertia" are included; untagged fields are ignored.
//
// Tag format: `inertia:"name[,type][,concurrent][,omitempty]"`
//
// Tag components:
//   - name: Prop name sent to the client. Use "-" to skip the field.
//   - type: "lazy", "always", or empty (regular prop)
//   - concurrent: lazy props only, resolve in the worker pool
//   - omitempty: skip zero-value fields
//
// Lazy fields must be of type LazyFunc, *LazyValue or another Lazy
// implementation.
//
// Example:
//
//	type PageProps struct {
//	    UserID    int      `inertia:"user_id,always"`
//	    Posts     []Post   `inertia:"posts"`
//	    Analytics LazyFunc `inertia:"analytics,lazy,concurrent"`
//	}
func ParseStruct(v any) (Props, error) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return nil, errors.New("inertia: props must be a pointer")
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return nil, errors.New("inertia: props must be a struct")
	}

	typ := val.Type()
	props := make(Props, 0, typ.NumField())

	for i := range typ.NumField() {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(TagInertia)
		if tag == "" {
			continue
		}

		parts := strings.Split(tag, ",")

		name := parts[0]
		if name == "" {
			name = field.Name
		}

		if name == propDiscard {
			continue
		}

		var fieldType string

		concurrent, omitEmpty := false, false

		for _, opt := range parts[1:] {
			switch opt {
			case propTypeLazy, propTypeAlways:
				fieldType = opt
			case propConcurrent:
				concurrent = true
			case propOmitEmpty:
				omitEmpty = true
			case "":
			default:
				return nil, fmt.Errorf("inertia: unknown option %q on field %s", opt, field.Name)
			}
		}

		if omitEmpty && fieldVal.IsZero() {
			continue
		}

		if concurrent && fieldType != propTypeLazy {
			return nil, fmt.Errorf("inertia: concurrent option on non-lazy field %s", field.Name)
		}

		switch fieldType {
		case propTypeLazy:
			lazy, err := toLazy(fieldVal)
			if err != nil {
				return nil, fmt.Errorf("inertia: field %s: %w", field.Name, err)
			}

			lv := NewLazy(lazy)
			if concurrent {
				lv.Concurrent()
			}

			props = append(props, NewProp(name, lv))
		case propTypeAlways:
			props = append(props, NewAlways(name, fieldVal.Interface()))
		default:
			props = append(props, NewProp(name, fieldVal.Interface()))
		}
	}

	return props, nil
}

// toLazy converts a reflect.Value to a Lazy if the value is Lazy convertible.
func toLazy(v reflect.Value) (Lazy, error) {
	if !v.Type().Implements(lazyType) || v.IsZero() {
		return nil, errors.New("invalid lazy value")
	}

	lazy, ok := v.Interface().(Lazy)
	if !ok {
		return nil, errors.New("invalid lazy value")
	}

	return lazy, nil
}
