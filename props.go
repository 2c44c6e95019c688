package inertiacore

import (
	"context"
)

var (
	_ Proper = (Props)(nil)
	_ Proper = (*Prop)(nil)
)

// Prop represents a single property passed to an Inertia page component.
//
// Create props using constructor functions:
//   - NewProp: Standard prop, included on initial render and when requested
//     by a partial reload
//   - NewAlways: Always included, ignores partial reload filters
//   - NewLazyProp: Computed only when the prop is included in the response
type Prop struct {
	val    any
	lazy   *LazyValue
	key    string
	always bool
}

// AlwaysValue marks a value as always included, regardless of partial
// reload filters. It can be stored in shared data.
type AlwaysValue struct{ v any }

// Always marks v as always included.
func Always(v any) AlwaysValue { return AlwaysValue{v} }

// NewProp creates a prop from key and val.
//
// The kind of prop is derived from val: an AlwaysValue creates an always
// prop, a Lazy (including *LazyValue) creates a lazily-evaluated prop,
// anything else is a plain value.
func NewProp(key string, val any) Prop {
	//nolint:exhaustruct
	prop := Prop{key: key}

	if a, ok := val.(AlwaysValue); ok {
		prop.always = true
		val = a.v
	}

	if l, ok := val.(Lazy); ok {
		prop.lazy = NewLazy(l)
	} else {
		prop.val = val
	}

	return prop
}

// NewAlways creates a prop that is always included in responses.
// Use for data that must always be present, such as authentication state.
func NewAlways(key string, val any) Prop {
	return NewProp(key, Always(val))
}

// NewLazyProp creates a prop whose value is computed by fn only when
// the prop is included in the response.
func NewLazyProp(key string, fn LazyFunc) Prop {
	return NewProp(key, NewLazy(fn))
}

// Key returns the prop key.
func (p Prop) Key() string { return p.key }

// IsAlways reports whether the prop bypasses partial reload filters.
func (p Prop) IsAlways() bool { return p.always }

// IsLazy reports whether the prop value is computed on demand.
func (p Prop) IsLazy() bool { return p.lazy != nil }

func (p Prop) Props() []Prop { return []Prop{p} }
func (p Prop) Len() int      { return 1 }

// value returns the prop value, evaluating lazy props.
func (p Prop) value(ctx context.Context) (any, error) {
	if p.lazy != nil {
		v, err := p.lazy.Value(ctx)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return v, nil
	}

	return p.val, nil
}

// concurrent reports whether the prop can be resolved in a worker pool.
func (p Prop) concurrent() bool { return p.lazy != nil && p.lazy.concurrent }

// Proper represents a collection of props that can be passed to Render.
type Proper interface {
	// Props returns the underlying prop slice.
	Props() []Prop

	// Len returns the number of props in the collection.
	Len() int
}

// Props is a collection of props.
type Props []Prop

func (p Props) Len() int      { return len(p) }
func (p Props) Props() []Prop { return p }
