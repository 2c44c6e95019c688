package inertiacore

import (
	"context"
	"errors"
	"net/http"

	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/must"

	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiaredirect"
)

type factoryCtxKey struct{}

//nolint:gochecknoglobals
var kFactoryCtxKey = factoryCtxKey{}

// ErrFactoryNotFound is returned by Render when the request did not pass
// through the middleware.
var ErrFactoryNotFound = errors.New(
	"inertia: factory not found in request context - did you forget to use the middleware?",
)

//nolint:gochecknoglobals
var DefaultEmptyResponseHandler = func(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Empty response", http.StatusNoContent)
}

// DefaultVersionMismatchHandler forces the client to reload the current URL.
//
//nolint:gochecknoglobals
var DefaultVersionMismatchHandler = func(w http.ResponseWriter, r *http.Request) {
	forceReload(w, r)
}

// MiddlewareConfig configures the behavior of the Inertia.js middleware.
type MiddlewareConfig struct {
	// EmptyResponseHandler is called when a handler produces no response body.
	//
	// If nil, defaults to returning HTTP 204 No Content with an error message.
	EmptyResponseHandler http.HandlerFunc

	// VersionMismatchHandler is called when the client's asset version doesn't match the server's.
	//
	// If nil, defaults to a forced reload of the current URL.
	VersionMismatchHandler http.HandlerFunc
}

func (m *MiddlewareConfig) defaults() {
	if m.EmptyResponseHandler == nil {
		m.EmptyResponseHandler = DefaultEmptyResponseHandler
	}

	if m.VersionMismatchHandler == nil {
		m.VersionMismatchHandler = DefaultVersionMismatchHandler
	}

	debug.Assert(m.EmptyResponseHandler != nil, "EmptyResponseHandler must be set")
	debug.Assert(m.VersionMismatchHandler != nil, "VersionMismatchHandler must be set")
}

// NewMiddleware creates an HTTP middleware that enables Inertia.js protocol handling.
//
// The middleware attaches the factory and fresh per-request state (shared
// data, SSR result cache) to the request context, validates the asset
// version of protocol-aware GET requests and buffers Inertia responses so
// that HTTP 302 redirects after PUT/PATCH/DELETE requests are converted
// to 303.
func NewMiddleware(f *Factory, opts ...func(*MiddlewareConfig)) func(http.Handler) http.Handler {
	debug.Assert(f != nil, "factory must be set")

	var config MiddlewareConfig
	for _, opt := range opts {
		opt(&config)
	}

	config.defaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := ensureState(context.WithValue(r.Context(), kFactoryCtxKey, f))
			r = r.WithContext(ctx)

			w.Header().Set(inertiaheader.HeaderVary, inertiaheader.HeaderXInertia)

			if !isInertiaRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodGet && f.versionMismatch(r) {
				d("Asset version mismatch for %s", r.URL.RequestURI())

				config.VersionMismatchHandler(w, r)

				return
			}

			rww := newResponseWriter(w)
			next.ServeHTTP(rww, r)

			if rww.statusCode == http.StatusFound {
				rww.WriteHeader(inertiaredirect.StatusFor(r.Method))
			}

			if rww.Empty() {
				config.EmptyResponseHandler(w, r)
				return
			}

			rww.flush()
		})
	}
}

// Middleware is a shorthand for NewMiddleware(f, opts...).
func (f *Factory) Middleware(opts ...func(*MiddlewareConfig)) func(http.Handler) http.Handler {
	return NewMiddleware(f, opts...)
}

// FromRequest returns the factory installed by the middleware.
func FromRequest(r *http.Request) (*Factory, bool) {
	f, ok := r.Context().Value(kFactoryCtxKey).(*Factory)
	return f, ok
}

// Render renders component with the factory installed by the middleware
// and writes the response.
func Render(w http.ResponseWriter, r *http.Request, component string, props ...Proper) error {
	f, ok := FromRequest(r)
	if !ok {
		return ErrFactoryNotFound
	}

	return f.Render(r, component, props...).Write(w, r)
}

// MustRender is like Render, but panics if an error occurs.
func MustRender(w http.ResponseWriter, r *http.Request, component string, props ...Proper) {
	must.Must1(Render(w, r, component, props...))
}
