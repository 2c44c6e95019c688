package inertiacore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyValue(t *testing.T) {
	t.Parallel()

	t.Run("evaluated at most once", func(t *testing.T) {
		t.Parallel()

		lv, calls := counter("v")

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				v, err := lv.Value(context.Background())
				assert.NoError(t, err)
				assert.Equal(t, "v", v)
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("error is memoized", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		n := 0

		lv := NewLazy(LazyFunc(func(context.Context) (any, error) {
			n++
			return nil, boom
		}))

		for range 2 {
			_, err := lv.Value(context.Background())
			require.ErrorIs(t, err, boom)
		}

		assert.Equal(t, 1, n)
	})

	t.Run("wrapping a lazy value returns it", func(t *testing.T) {
		t.Parallel()

		lv, _ := counter(1)
		assert.Same(t, lv, NewLazy(lv))
	})

	t.Run("prop kinds", func(t *testing.T) {
		t.Parallel()

		lv, calls := counter(1)

		plain := NewProp("a", 1)
		lazy := NewProp("b", lv)
		always := NewProp("c", Always(lv))

		assert.False(t, plain.IsLazy())
		assert.False(t, plain.IsAlways())
		assert.True(t, lazy.IsLazy())
		assert.True(t, always.IsLazy())
		assert.True(t, always.IsAlways())

		assert.Equal(t, int32(0), calls.Load(), "constructing props evaluates nothing")
	})
}

func TestSharedData(t *testing.T) {
	t.Parallel()

	sd := SharedData{}
	sd.Set("b", 1)
	sd.Merge(map[string]any{"a": 2, "b": 3})

	props := sd.Props()
	require.Len(t, props, 2)

	assert.Equal(t, "a", props[0].Key())
	assert.Equal(t, "b", props[1].Key())

	v, err := props[1].value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
