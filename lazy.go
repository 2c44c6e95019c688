package inertiacore

import (
	"context"
	"sync"
)

var (
	_ Lazy = (*LazyValue)(nil)
	_ Lazy = (LazyFunc)(nil)
)

type (
	// Lazy represents a prop value that is resolved on demand rather than eagerly.
	Lazy interface {
		// Value resolves and returns the prop's value.
		// The returned value must be JSON-serializable.
		Value(context.Context) (any, error)
	}

	// LazyFunc is a function adapter that implements the Lazy interface.
	LazyFunc func(context.Context) (any, error)
)

// Value calls `fn()`.
func (fn LazyFunc) Value(ctx context.Context) (any, error) { return fn(ctx) }

// LazyValue defers a prop computation until the response decides to
// include the prop. The computation runs at most once; later calls
// return the memoized result.
type LazyValue struct {
	lazy       Lazy
	val        any
	err        error
	once       sync.Once
	concurrent bool
}

// NewLazy wraps l into a LazyValue.
func NewLazy(l Lazy) *LazyValue {
	if lv, ok := l.(*LazyValue); ok {
		return lv
	}

	return &LazyValue{lazy: l} //nolint:exhaustruct
}

// Concurrent marks the value as safe to resolve concurrently with other
// concurrent values of the same response.
func (l *LazyValue) Concurrent() *LazyValue {
	l.concurrent = true
	return l
}

// Value runs the computation on first call.
func (l *LazyValue) Value(ctx context.Context) (any, error) {
	l.once.Do(func() {
		l.val, l.err = l.lazy.Value(ctx)
	})

	return l.val, l.err
}
