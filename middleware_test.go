package inertiacore

import (
	"html/template"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiatest"
)

//nolint:gochecknoglobals
var tpl = template.Must(template.New("<inertia-test>").Parse(`<!doctype html>
<html>
<head>{{ .InertiaHead }}</head>
<body>{{ .InertiaBody }}</body>
</html>
`))

func newMiddleware(h http.Handler, f *Factory, opts ...func(*MiddlewareConfig)) http.Handler {
	if f == nil {
		f = New(tpl, nil)
	}

	mux := http.NewServeMux()
	middleware := NewMiddleware(f, opts...)(mux)

	mux.HandleFunc("/inertia", h.ServeHTTP)

	return middleware
}

func TestMiddleware_RedirectToSeeOther(t *testing.T) {
	t.Parallel()

	redirectHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/somewhere", http.StatusFound)
	})

	testCases := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"PATCH should redirect with 303", http.MethodPatch, http.StatusSeeOther},
		{"PUT should redirect with 303", http.MethodPut, http.StatusSeeOther},
		{"DELETE should redirect with 303", http.MethodDelete, http.StatusSeeOther},
		{"GET should redirect with 302", http.MethodGet, http.StatusFound},
		{"POST should redirect with 302", http.MethodPost, http.StatusFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, w := inertiatest.NewRequest(tc.method, "/inertia", &inertiatest.RequestConfig{
				Inertia: true,
			})

			middleware := newMiddleware(redirectHandler, nil)
			middleware.ServeHTTP(w, r)

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.Equal(t, "/somewhere", w.Header().Get(inertiaheader.HeaderLocation))
		})
	}
}

func TestMiddleware_VersionMismatch(t *testing.T) {
	t.Parallel()

	f := New(tpl, &Config{Version: VersionString("v2")})

	var called bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		MustRender(w, r, "Home")
	})

	r, w := inertiatest.NewRequest(http.MethodGet, "/inertia?x=1", &inertiatest.RequestConfig{
		Inertia: true,
		Version: "v1",
	})

	newMiddleware(h, f).ServeHTTP(w, r)

	assert.False(t, called, "handler must not run on a stale version")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "/inertia?x=1", w.Header().Get(inertiaheader.HeaderXInertiaLocation))
	assert.Empty(t, w.Header().Get(inertiaheader.HeaderVary))
	assert.Empty(t, w.Body.String())
}

func TestMiddleware_CustomVersionMismatchHandler(t *testing.T) {
	t.Parallel()

	f := New(tpl, &Config{Version: VersionString("v2")})

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r, w := inertiatest.NewRequest(http.MethodGet, "/inertia", &inertiatest.RequestConfig{
		Inertia: true,
		Version: "v1",
	})

	newMiddleware(h, f, func(c *MiddlewareConfig) {
		c.VersionMismatchHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}
	}).ServeHTTP(w, r)

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestMiddleware_EmptyResponse(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r, w := inertiatest.NewRequest(http.MethodGet, "/inertia", &inertiatest.RequestConfig{Inertia: true})

	newMiddleware(h, nil).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMiddleware_Vary(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MustRender(w, r, "Home")
	})

	for _, inertia := range []bool{true, false} {
		r, w := inertiatest.NewRequest(http.MethodGet, "/inertia", &inertiatest.RequestConfig{Inertia: inertia})

		newMiddleware(h, nil).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, inertiaheader.HeaderXInertia, w.Header().Get(inertiaheader.HeaderVary))
	}
}

func TestMiddleware_SharedData(t *testing.T) {
	t.Parallel()

	shareUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = Share(r, "user", "alice")
			r = ShareMap(r, map[string]any{"flash": "saved"})

			next.ServeHTTP(w, r)
		})
	}

	f := New(tpl, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/inertia", func(w http.ResponseWriter, r *http.Request) {
		MustRender(w, r, "Home", NewProp("flash", "overridden"))
	})

	r, w := inertiatest.NewRequest(http.MethodGet, "/inertia", &inertiatest.RequestConfig{Inertia: true})

	f.Middleware()(shareUser(mux)).ServeHTTP(w, r)

	props := decodeProps(t, w.Body.Bytes())
	assert.Equal(t, "alice", props["user"])
	assert.Equal(t, "overridden", props["flash"])
}

func TestMiddleware_Location(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := FromRequest(r)
		require.True(t, ok)
		require.NoError(t, f.Location("https://example.com/login").Write(w, r))
	})

	r, w := inertiatest.NewRequest(http.MethodPost, "/inertia", &inertiatest.RequestConfig{Inertia: true})

	newMiddleware(h, nil).ServeHTTP(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "https://example.com/login", w.Header().Get(inertiaheader.HeaderXInertiaLocation))
}

func TestRender_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	r, w := inertiatest.NewRequest(http.MethodGet, "/", nil)

	_, ok := FromRequest(r)
	assert.False(t, ok)

	require.ErrorIs(t, Render(w, r, "Home"), ErrFactoryNotFound)
	assert.Panics(t, func() { MustRender(w, r, "Home") })
}
