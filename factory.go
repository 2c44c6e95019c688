package inertiacore

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/must"

	"go.inout.gg/inertiacore/internal/inertiabase"
	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiajson"
	"go.inout.gg/inertiacore/internal/inertiassr"
)

const (
	// DefaultRootViewID is the default root HTML element ID to which
	// the Inertia.js app is mounted.
	DefaultRootViewID = "app"

	// DefaultSSRURL is the default address of the Inertia SSR server.
	DefaultSSRURL = "http://127.0.0.1:13714/render"

	// DefaultSSRTimeout bounds a single SSR dispatch.
	DefaultSSRTimeout = 2 * time.Second

	// DefaultMetricsNamespace is the namespace of the SSR dispatch metrics.
	DefaultMetricsNamespace = "inertia"
)

// DefaultConcurrency is the default concurrency level for props resolution
// marked as concurrently resolvable.
var DefaultConcurrency = runtime.GOMAXPROCS(0) //nolint:gochecknoglobals

// Page represents an Inertia.js page that is sent to the client.
type Page = inertiabase.Page

// SSRConfig configures server-side rendering.
type SSRConfig struct {
	// URL of the rendering service endpoint.
	//
	// Defaults to DefaultSSRURL.
	URL string

	// Timeout bounds a single dispatch. Expiry is treated as a failed
	// dispatch and the page is rendered on the client.
	//
	// Defaults to DefaultSSRTimeout.
	Timeout time.Duration

	// Enabled turns on server-side rendering for HTML responses.
	Enabled bool
}

// Config configures the Factory behavior and capabilities.
type Config struct {
	// Gateway dispatches pages to the rendering service.
	//
	// If nil and SSR is enabled, an HTTP gateway recording metrics with
	// the default Prometheus registerer is used.
	Gateway Gateway

	// Logger receives SSR fallback warnings.
	//
	// Defaults to slog.Default().
	Logger *slog.Logger

	// RootViewAttrs are HTML attributes applied to the root element.
	RootViewAttrs map[string]string

	// Version identifies the current asset version (e.g., build hash).
	Version Version

	// RootViewID is the HTML element ID where the Inertia app mounts.
	//
	// Defaults to "app" if not specified.
	RootViewID string

	// JSONMarshalOptions configures JSON serialization for page props and data.
	JSONMarshalOptions []json.Options

	// SSR configures server-side rendering.
	SSR SSRConfig

	// Concurrency sets the default maximum number of props that can be resolved concurrently.
	// It only affects lazy values marked as concurrent.
	//
	// Defaults to runtime.GOMAXPROCS(0).
	Concurrency int
}

func (c *Config) defaults() {
	c.RootViewID = cmp.Or(c.RootViewID, DefaultRootViewID)
	c.Concurrency = cmp.Or(c.Concurrency, DefaultConcurrency)
	c.SSR.URL = cmp.Or(c.SSR.URL, DefaultSSRURL)
	c.SSR.Timeout = cmp.Or(c.SSR.Timeout, DefaultSSRTimeout)

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.SSR.Enabled && c.Gateway == nil {
		c.Gateway = NewHTTPGateway(&http.Client{}, &GatewayConfig{ //nolint:exhaustruct
			Metrics: NewSSRMetrics(nil, DefaultMetricsNamespace),
		})
	}

	debug.Assert(c.RootViewID != "", "RootViewID must be non-empty string")
}

// Factory creates Inertia responses. It holds process-wide configuration
// only; all request state travels with the request context.
//
// Create a Factory using New or FromFS constructor functions.
type Factory struct {
	gateway            Gateway
	logger             *slog.Logger
	t                  *template.Template
	version            atomic.Pointer[Version]
	ssrURL             string
	rootViewID         string
	jsonMarshalOptions []json.Options
	rootViewAttrs      []pair[[]byte, []byte]
	ssrTimeout         time.Duration
	concurrency        int
	ssrEnabled         bool
}

// New creates a Factory with the provided root template and configuration.
//
// If config is nil, default values are used:
//   - RootViewID: "app"
//   - Concurrency: GOMAXPROCS(0)
//   - SSR disabled
func New(t *template.Template, config *Config) *Factory {
	if config == nil {
		//nolint:exhaustruct
		config = &Config{}
	}

	config.defaults()

	attrs := make([]pair[[]byte, []byte], 0, len(config.RootViewAttrs))
	for _, key := range slices.Sorted(maps.Keys(config.RootViewAttrs)) {
		attrs = append(attrs, pair[[]byte, []byte]{[]byte(key), []byte(config.RootViewAttrs[key])})
	}

	//nolint:exhaustruct
	f := &Factory{
		t:                  t,
		gateway:            config.Gateway,
		logger:             config.Logger,
		jsonMarshalOptions: config.JSONMarshalOptions,
		rootViewID:         config.RootViewID,
		rootViewAttrs:      attrs,
		concurrency:        config.Concurrency,
		ssrEnabled:         config.SSR.Enabled,
		ssrURL:             config.SSR.URL,
		ssrTimeout:         config.SSR.Timeout,
	}
	f.SetVersion(config.Version)

	debug.Assert(f.t != nil, "expected t to be defined")
	debug.Assert(!f.ssrEnabled || f.gateway != nil, "expected gateway to be defined when SSR is enabled")

	return f
}

// FromFS creates a Factory by loading the root template from a file system.
//
// If config is nil, default values are used.
func FromFS(fsys fs.FS, path string, config *Config) (*Factory, error) {
	debug.Assert(fsys != nil, "expected fsys to be defined")
	debug.Assert(path != "", "expected path to be defined")

	t, err := template.New("inertia").ParseFS(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to parse templates: %w", err)
	}

	return New(t, config), nil
}

// MustFromFS is like FromFS, but panics if an error occurs.
func MustFromFS(fsys fs.FS, path string, config *Config) *Factory {
	return must.Must(FromFS(fsys, path, config))
}

// SetVersion replaces the asset version.
//
// The swap is atomic: every Version call that starts after SetVersion
// returns observes v.
func (f *Factory) SetVersion(v Version) { f.version.Store(&v) }

// Version resolves the current asset version. The boolean is false if
// no version is configured.
func (f *Factory) Version() (string, bool) {
	v := f.version.Load()
	if v == nil {
		return "", false
	}

	return v.Resolve()
}

// Render creates a response for component.
//
// Props shared on r so far are merged with props; explicit props override
// shared ones with the same key. No prop is evaluated until the response
// is written.
func (f *Factory) Render(r *http.Request, component string, props ...Proper) *Response {
	debug.Assert(component != "", "component must not be empty")

	n := 0
	for _, p := range props {
		if p != nil {
			n += p.Len()
		}
	}

	shared := SharedFromRequest(r)
	all := make([]Prop, 0, len(shared)+n)
	all = append(all, shared.Props()...)

	for _, p := range props {
		if p != nil {
			all = append(all, p.Props()...)
		}
	}

	//nolint:exhaustruct
	return &Response{
		f:         f,
		component: component,
		props:     all,
	}
}

// Location returns a result redirecting the client to url outside of
// the Inertia app.
func (f *Factory) Location(url string) LocationResult { return LocationResult{URL: url} }

// Share stores key in the request's shared data. See Share.
func (f *Factory) Share(r *http.Request, key string, value any) *http.Request {
	return Share(r, key, value)
}

// ShareMap merges m into the request's shared data. See ShareMap.
func (f *Factory) ShareMap(r *http.Request, m map[string]any) *http.Request {
	return ShareMap(r, m)
}

// Lazy wraps fn into a LazyValue.
func (f *Factory) Lazy(fn LazyFunc) *LazyValue { return NewLazy(fn) }

// RenderHead returns the SSR head fragment for page, or empty content
// if SSR is disabled or produced nothing.
func (f *Factory) RenderHead(ctx context.Context, page *Page) template.HTML {
	if res := f.dispatch(ctx, page); res != nil {
		return template.HTML(res.Head) //nolint:gosec
	}

	return ""
}

// RenderBody returns the SSR body fragment for page. If SSR is disabled
// or produced nothing, it returns the root element with the page embedded
// for client-side rendering.
func (f *Factory) RenderBody(ctx context.Context, page *Page) (template.HTML, error) {
	if res := f.dispatch(ctx, page); res != nil {
		return template.HTML(res.Body), nil //nolint:gosec
	}

	return f.makeRootView(page)
}

// dispatch performs the request's SSR dispatch at most once. The outcome,
// including failure, is cached on the request state carried by ctx.
func (f *Factory) dispatch(ctx context.Context, page *Page) *SSRResult {
	if !f.ssrEnabled {
		return nil
	}

	st := stateFromContext(ctx)
	if st != nil && st.ssr != nil {
		d("reusing SSR result for %s", page.Component)

		return st.ssr.result
	}

	dctx, cancel := context.WithTimeout(ctx, f.ssrTimeout)
	defer cancel()

	res, err := f.gateway.Dispatch(dctx, page, f.ssrURL)

	// The request is gone; drop the result instead of caching it.
	if ctx.Err() != nil {
		d("request cancelled during SSR dispatch for %s", page.Component)

		return nil
	}

	if err != nil {
		f.logger.WarnContext(ctx, "inertia: SSR dispatch failed, falling back to client-side rendering",
			slog.String("component", page.Component),
			slog.String("outcome", inertiassr.Outcome(err)),
			slog.Any("error", err),
		)

		res = nil
	}

	if st != nil {
		st.ssr = &ssrOutcome{result: res}
	}

	return res
}

// makeRootView creates a root view element with the given page data.
func (f *Factory) makeRootView(page *Page) (template.HTML, error) {
	pageBytes, err := inertiajson.Marshal(page, f.jsonMarshalOptions...)
	if err != nil {
		return "", fmt.Errorf("inertia: an error occurred while rendering page: %w", err)
	}

	var w bytes.Buffer

	_ = must.Must(w.WriteString(`<div id="`))
	template.HTMLEscape(&w, []byte(f.rootViewID))
	_ = must.Must(w.WriteString(`" data-page="`))
	template.HTMLEscape(&w, pageBytes)
	_ = must.Must(w.WriteRune('"'))

	for _, kv := range f.rootViewAttrs {
		// id and data-page are owned by the root view.
		if bytes.Equal(kv.key, []byte("data-page")) || bytes.Equal(kv.key, []byte("id")) {
			continue
		}

		_ = must.Must(w.WriteRune(' '))
		template.HTMLEscape(&w, kv.key)
		_ = must.Must(w.WriteString(`="`))
		template.HTMLEscape(&w, kv.value)
		_ = must.Must(w.WriteRune('"'))
	}

	_ = must.Must(w.WriteString(`></div>`))

	//nolint:gosec
	return template.HTML(w.String()), nil
}

// versionMismatch reports whether the client's asset version differs
// from the current one.
func (f *Factory) versionMismatch(r *http.Request) bool {
	server, _ := f.Version()
	return r.Header.Get(inertiaheader.HeaderXInertiaVersion) != server
}

// pair is a key-value pair.
type pair[K any, V any] struct {
	key   K
	value V
}
