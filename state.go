package inertiacore

import (
	"context"
)

type stateCtxKey struct{}

//nolint:gochecknoglobals
var kStateCtxKey = stateCtxKey{}

// state is the request-scoped protocol state. It is owned by a single
// request and never shared, hence not synchronized.
type state struct {
	// shared is allocated on first Share.
	shared SharedData

	// ssr is nil until the first SSR dispatch of the request.
	ssr *ssrOutcome
}

// ssrOutcome is the cached result of the request's SSR dispatch.
// A nil result means the dispatch produced nothing.
type ssrOutcome struct {
	result *SSRResult
}

func stateFromContext(ctx context.Context) *state {
	st, _ := ctx.Value(kStateCtxKey).(*state)
	return st
}

// ensureState returns ctx carrying a request state, creating one if
// ctx has none.
func ensureState(ctx context.Context) (context.Context, *state) {
	if st := stateFromContext(ctx); st != nil {
		return ctx, st
	}

	st := &state{} //nolint:exhaustruct

	return context.WithValue(ctx, kStateCtxKey, st), st
}
