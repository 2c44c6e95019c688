// Package inertiajson encodes protocol payloads.
//
// All payloads are encoded deterministically (map keys sorted) so that
// identical inputs produce identical bytes. Cyclic references inside
// props are broken before encoding instead of failing the response.
package inertiajson

import (
	"encoding"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"
)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/json")

//nolint:gochecknoglobals
var (
	jsonMarshalerType   = reflect.TypeFor[json.Marshaler]()
	jsonMarshalerToType = reflect.TypeFor[json.MarshalerTo]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Options joins the default payload options with opts.
// Later options take precedence.
func Options(opts ...json.Options) json.Options {
	all := make([]json.Options, 0, len(opts)+1)
	all = append(all, json.Deterministic(true))
	all = append(all, opts...)

	return json.JoinOptions(all...)
}

// Marshal encodes v with the payload options.
func Marshal(v any, opts ...json.Options) ([]byte, error) {
	b, err := json.Marshal(v, Options(opts...))
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to marshal payload: %w", err)
	}

	return b, nil
}

// MarshalWrite encodes v to w with the payload options.
func MarshalWrite(w io.Writer, v any, opts ...json.Options) error {
	if err := json.MarshalWrite(w, v, Options(opts...)); err != nil {
		return fmt.Errorf("inertia: failed to write payload: %w", err)
	}

	return nil
}

// BreakCycles returns m with every cyclic reference removed.
//
// A map entry or struct field that points back to one of its ancestors
// is omitted, a slice element that does so is replaced with nil.
// Values that contain no cycle are returned untouched. When a value is
// rewritten, structs are converted into maps keyed by their JSON names.
func BreakCycles(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	w := &walker{active: make(map[visit]struct{})}

	out, ok := w.walk(reflect.ValueOf(m))
	if !w.cut {
		return m
	}

	d("broke %d cyclic reference(s) in props", w.cuts)

	if !ok {
		return map[string]any{}
	}

	res, _ := out.(map[string]any)

	return res
}

// visit identifies a reference on the active path.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type walker struct {
	active map[visit]struct{}
	cuts   int
	cut    bool
}

func (w *walker) enter(v reflect.Value) (visit, bool) {
	key := visit{typ: v.Type(), ptr: v.Pointer()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}

	if _, ok := w.active[key]; ok {
		w.cut = true
		w.cuts++

		return key, false
	}

	w.active[key] = struct{}{}

	return key, true
}

func (w *walker) leave(key visit) { delete(w.active, key) }

// walk returns a cycle-free copy of v. The boolean is false when v itself
// closes a cycle and must be dropped by the caller.
func (w *walker) walk(v reflect.Value) (any, bool) {
	// Values reached through unexported embedded structs cannot be read.
	if !v.IsValid() || !v.CanInterface() {
		return nil, true
	}

	if isOpaque(v.Type()) {
		return v.Interface(), true
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, true
		}

		return w.walk(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return v.Interface(), true
		}

		key, ok := w.enter(v)
		if !ok {
			return nil, false
		}
		defer w.leave(key)

		return w.walk(v.Elem())
	case reflect.Map:
		if v.IsNil() {
			return v.Interface(), true
		}

		key, ok := w.enter(v)
		if !ok {
			return nil, false
		}
		defer w.leave(key)

		m := make(map[string]any, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			child, ok := w.walk(iter.Value())
			if !ok {
				continue
			}

			m[mapKey(iter.Key())] = child
		}

		return m, true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 || v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), true
		}

		key, ok := w.enter(v)
		if !ok {
			return nil, false
		}
		defer w.leave(key)

		return w.walkList(v), true
	case reflect.Array:
		return w.walkList(v), true
	case reflect.Struct:
		return w.walkStruct(v), true
	default:
		return v.Interface(), true
	}
}

func (w *walker) walkList(v reflect.Value) []any {
	s := make([]any, v.Len())

	for i := range v.Len() {
		child, ok := w.walk(v.Index(i))
		if ok {
			s[i] = child
		}
	}

	return s
}

func (w *walker) walkStruct(v reflect.Value) map[string]any {
	t := v.Type()
	m := make(map[string]any, t.NumField())

	for i := range t.NumField() {
		f := t.Field(i)
		name, omit := parseTag(f.Tag.Get("json"))

		if name == "-" {
			continue
		}

		fv := v.Field(i)

		if f.Anonymous && name == "" {
			for fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					break
				}

				fv = fv.Elem()
			}

			if fv.Kind() == reflect.Struct {
				for k, val := range w.walkStruct(fv) {
					if _, ok := m[k]; !ok {
						m[k] = val
					}
				}

				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		if omit && fv.IsZero() {
			continue
		}

		if name == "" {
			name = f.Name
		}

		child, ok := w.walk(fv)
		if !ok {
			continue
		}

		m[name] = child
	}

	return m
}

// parseTag returns the JSON name of a field and whether zero values
// should be omitted.
func parseTag(tag string) (string, bool) {
	name, opts, _ := strings.Cut(tag, ",")
	omit := false

	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omit = true
		}
	}

	return name, omit
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}

	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if b, err := tm.MarshalText(); err == nil {
			return string(b)
		}
	}

	return fmt.Sprint(k.Interface())
}

// isOpaque reports whether t encodes itself, in which case its contents
// are left alone.
func isOpaque(t reflect.Type) bool {
	for _, it := range []reflect.Type{jsonMarshalerType, jsonMarshalerToType, textMarshalerType} {
		if t.Implements(it) {
			return true
		}
	}

	return false
}
