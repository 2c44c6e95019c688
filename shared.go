package inertiacore

import (
	"maps"
	"net/http"
	"slices"
)

// SharedData accumulates props shared with every page rendered during
// a request.
type SharedData map[string]any

// Set inserts or overwrites key.
func (s SharedData) Set(key string, value any) { s[key] = value }

// Merge overwrites the keys present in m and leaves the others untouched.
func (s SharedData) Merge(m map[string]any) { maps.Copy(s, m) }

// Props returns the shared data as props ordered by key.
func (s SharedData) Props() []Prop {
	props := make([]Prop, 0, len(s))
	for _, k := range slices.Sorted(maps.Keys(s)) {
		props = append(props, NewProp(k, s[k]))
	}

	return props
}

func (s SharedData) Len() int { return len(s) }

// Share stores key in the request's shared data and returns the request
// carrying it.
//
// If the request already carries protocol state (installed by the
// Middleware or a previous Share), r is returned as is; otherwise the
// state is created and a derived request is returned, which callers
// must use from then on.
func Share(r *http.Request, key string, value any) *http.Request {
	r, sd := sharedData(r)
	sd.Set(key, value)

	return r
}

// ShareMap merges m into the request's shared data.
// See Share for the returned request.
func ShareMap(r *http.Request, m map[string]any) *http.Request {
	r, sd := sharedData(r)
	sd.Merge(m)

	return r
}

// SharedFromRequest returns the shared data of r, or nil if nothing was shared.
func SharedFromRequest(r *http.Request) SharedData {
	if st := stateFromContext(r.Context()); st != nil {
		return st.shared
	}

	return nil
}

func sharedData(r *http.Request) (*http.Request, SharedData) {
	ctx, st := ensureState(r.Context())
	if ctx != r.Context() {
		r = r.WithContext(ctx)
	}

	if st.shared == nil {
		st.shared = make(SharedData)
	}

	return r, st.shared
}
