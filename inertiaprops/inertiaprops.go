// Package inertiaprops provides map-based prop collections.
package inertiaprops

import (
	"maps"
	"slices"

	"go.inout.gg/inertiacore"
)

var _ inertiacore.Proper = (*Map)(nil)

// Map is a convenient map-based Proper implementation for simple key-value props.
//
// Values keep their meaning: a *inertiacore.LazyValue becomes a lazy prop
// and a value wrapped with inertiacore.Always is always included.
// Props are produced in key order.
type Map map[string]any

func (m Map) Props() []inertiacore.Prop {
	props := make([]inertiacore.Prop, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		props = append(props, inertiacore.NewProp(k, m[k]))
	}

	return props
}

func (m Map) Len() int { return len(m) }
