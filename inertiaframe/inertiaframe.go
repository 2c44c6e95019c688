// inertiaframe implements an opinionated framework around Go's HTTP and
// the inertiacore factory, abstracting out protocol-level details and
// providing a simple message-based API.
package inertiaframe

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-playground/form/v4"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/http/httperror"
	"go.inout.gg/foundations/http/httpmiddleware"
	"go.inout.gg/foundations/must"

	"go.inout.gg/inertiacore"
	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiaredirect"
)

var d = debug.Debuglog("inertiaframe") //nolint:gochecknoglobals

var DefaultFormDecoder = form.NewDecoder() //nolint:gochecknoglobals

var ErrEmptyResponse = errors.New("inertiaframe: empty response")

var (
	_ RawResponseWriter = (*redirectMessage)(nil)
	_ RawResponseWriter = (*redirectBackMessage)(nil)
	_ RawResponseWriter = (*locationMessage)(nil)
)

// RedirectBack redirects the user back to the previous page.
//
// The previous page is determined from the Referer header and
// falls back to the last page stored in the session.
func RedirectBack(w http.ResponseWriter, r *http.Request) {
	referer := r.Header.Get(inertiaheader.HeaderReferer)
	if referer == "" {
		referer = cmp.Or(sessionOrEmpty(r).Referer(), "/")
	}

	d("redirecting back to %s", referer)

	inertiaredirect.Redirect(w, r, referer)
}

// DefaultValidationErrorHandler is a default error handler for validation errors.
//
// It flashes the errors to the session and redirects back to the previous page,
// where they are rendered in the "errors" prop.
func DefaultValidationErrorHandler(w http.ResponseWriter, r *http.Request, errorer inertiacore.ValidationErrorer) {
	sess := sessionOrEmpty(r)

	sess.ErrorBag_ = inertiacore.ErrorBagFromRequest(r)
	sess.ValidationErrors_ = errorer.ValidationErrors()

	must.Must1(sess.Save(w))

	RedirectBack(w, r)
}

//nolint:gochecknoglobals
var DefaultErrorHandler httperror.ErrorHandler = httperror.ErrorHandlerFunc(
	func(w http.ResponseWriter, r *http.Request, err error) {
		var errorer inertiacore.ValidationErrorer
		if errors.As(err, &errorer) {
			DefaultValidationErrorHandler(w, r, errorer)
			return
		}

		httperror.DefaultErrorHandler(w, r, err)
	},
)

// Request is a request sent by a client.
type Request[M any] struct {
	// Message is a decoded message sent by a client.
	//
	// Message can implement RawRequestExtractor to intercept request data extraction.
	Message *M
}

func newRequest[M any](m *M) *Request[M] {
	return &Request[M]{Message: m}
}

// Response is a response sent by a server to a client.
//
// Use NewResponse to create a new response.
type Response struct {
	m           Message
	viewData    any
	concurrency int
}

// ResponseConfig is a configuration for a page response.
type ResponseConfig struct {
	// ViewData is passed to the root template as TemplateData.T.
	ViewData any

	// Concurrency determines the maximum number of concurrent resolutions of lazy
	// props that can be made during response resolution.
	Concurrency int
}

// NewResponse creates a new page response.
//
// The msg can be a struct pointer with props tagged with `inertia:"key"`,
// a set of props, or a value implementing RawResponseWriter for
// custom response handling.
//
// If config is nil, default values will be used.
func NewResponse(msg Message, config *ResponseConfig) *Response {
	if config == nil {
		//nolint:exhaustruct
		config = &ResponseConfig{}
	}

	return &Response{
		m:           msg,
		viewData:    config.ViewData,
		concurrency: config.Concurrency,
	}
}

type locationMessage struct{ url string }

func (m *locationMessage) Component() string { return "" }

func (m *locationMessage) Write(w http.ResponseWriter, r *http.Request) error {
	return inertiacore.LocationResult{URL: m.url}.Write(w, r) //nolint:wrapcheck
}

// NewLocationResponse creates a response that sends the client to a URL
// outside of the Inertia app with a full page visit.
func NewLocationResponse(url string) *Response {
	return NewResponse(&locationMessage{url: url}, nil)
}

type redirectBackMessage struct{}

func (m *redirectBackMessage) Component() string { return "" }

func (m *redirectBackMessage) Write(w http.ResponseWriter, r *http.Request) error {
	RedirectBack(w, r)
	return nil
}

// NewRedirectBackResponse creates a new response that redirects the client
// back to the previous page.
func NewRedirectBackResponse() *Response {
	return NewResponse(&redirectBackMessage{}, nil)
}

type redirectMessage struct{ url string }

func (m *redirectMessage) Component() string { return "" }

func (m *redirectMessage) Write(w http.ResponseWriter, r *http.Request) error {
	inertiaredirect.Redirect(w, r, m.url)
	return nil
}

// NewRedirectResponse creates a new response that redirects the client to the
// specified URL within the app.
func NewRedirectResponse(url string) *Response {
	return NewResponse(&redirectMessage{url: url}, nil)
}

// Message is used to send a message to the client. It can be
// used to guide the client to render a component or redirect to a
// specific URL.
//
// If the Message implements a RawResponseWriter, the default
// behavior is prevented and the writer is used instead to
// write the response data.
type Message interface {
	// Component returns the component name to be rendered.
	//
	// The handler panics if Component returns an empty string,
	// unless the message implements RawResponseWriter.
	Component() string
}

// RawRequestExtractor allows to extract data from the raw http.Request.
// If a request message implements RawRequestExtractor, the default
// behavior is prevented and the extractor is used instead to
// extract the request data.
type RawRequestExtractor interface {
	// Extract extracts data from the raw http.Request.
	Extract(*http.Request) error
}

// RawResponseWriter allows to write data to the http.ResponseWriter.
type RawResponseWriter interface {
	Write(http.ResponseWriter, *http.Request) error
}

// Meta is the metadata of an endpoint.
type Meta struct {
	// HTTP method of the endpoint.
	Method string

	// HTTP path of the endpoint. It supports the same path pattern as
	// the http.ServeMux.
	Path string
}

// Validator validates decoded request messages.
type Validator interface {
	Validate(any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(any) error

func (fn ValidatorFunc) Validate(v any) error { return fn(v) }

type Endpoint[R any] interface {
	// Execute executes the endpoint for the given request.
	//
	// If the returned error is an inertiacore.ValidationErrorer, it is
	// flashed to the session and rendered on the previous page.
	Execute(context.Context, *Request[R]) (*Response, error)

	// Meta returns the metadata of the endpoint. It is used to configure
	// the endpoint's behavior when mounted on a given mux.
	Meta() *Meta
}

// Mux is a universal interface for routing HTTP requests.
type Mux interface {
	// Handle handles the given HTTP request at the specified path.
	//
	// The pattern is a string following the http.ServeMux format:
	// "<http-method> <path>".
	Handle(pattern string, h http.Handler)
}

type MountOpts struct {
	Middleware           httpmiddleware.Middleware
	Validator            Validator
	ErrorHandler         httperror.ErrorHandler
	FormDecoder          *form.Decoder
	JSONUnmarshalOptions []json.Options
}

// Mount mounts the endpoint on the given mux.
//
// Endpoint must specify the HTTP method and path via Endpoint.Meta().
// The mounted endpoint decodes JSON and form requests and renders pages
// with the factory installed by inertiacore's middleware.
//
// If a Validator is set, the decoded message is validated before the
// endpoint runs. Validation errors are flashed and rendered on the
// previous page.
func Mount[M any](mux Mux, e Endpoint[M], opts *MountOpts) {
	if opts == nil {
		//nolint:exhaustruct
		opts = &MountOpts{}
	}

	opts.ErrorHandler = cmp.Or(opts.ErrorHandler, DefaultErrorHandler)
	opts.FormDecoder = cmp.Or(opts.FormDecoder, DefaultFormDecoder)

	debug.Assert(e != nil, "Endpoint must not be nil")
	debug.Assert(opts.ErrorHandler != nil, "Endpoint must specify the error handler")

	m := e.Meta()

	debug.Assert(m.Method != "", "Endpoint must specify the HTTP method")
	debug.Assert(m.Path != "", "Endpoint must specify the HTTP path")

	pattern := fmt.Sprintf("%s %s", m.Method, m.Path)

	d("Mounting endpoint on pattern: %s", pattern)

	h := newHandler(e, opts)
	if opts.Middleware != nil {
		h = opts.Middleware.Middleware(h)
	}

	mux.Handle(pattern, h)
}
