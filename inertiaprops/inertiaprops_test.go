package inertiaprops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.inout.gg/inertiacore"
)

func TestMap_Props(t *testing.T) {
	t.Parallel()

	m := Map{
		"b":    1,
		"a":    "x",
		"user": inertiacore.Always("alice"),
		"stats": inertiacore.NewLazy(inertiacore.LazyFunc(func(context.Context) (any, error) {
			return 42, nil
		})),
	}

	props := m.Props()

	assert.Equal(t, 4, m.Len())
	assert.Len(t, props, 4)

	keys := make([]string, 0, len(props))
	for _, p := range props {
		keys = append(keys, p.Key())
	}

	assert.Equal(t, []string{"a", "b", "stats", "user"}, keys)
	assert.True(t, props[2].IsLazy())
	assert.True(t, props[3].IsAlways())
	assert.False(t, props[0].IsLazy())
	assert.False(t, props[0].IsAlways())
}
