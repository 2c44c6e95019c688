package inertiacore

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alitto/pond/v2"

	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiajson"
)

var (
	_ Result = (*Response)(nil)
	_ Result = LocationResult{}
)

// Result is a value that knows how to write itself as an Inertia response.
// It is implemented by *Response and LocationResult.
type Result interface {
	Write(http.ResponseWriter, *http.Request) error
}

// Response is a page response built by Factory.Render.
//
// Props are evaluated when the response is written, honoring partial
// reload directives of the request.
type Response struct {
	f           *Factory
	viewData    any
	component   string
	errorBag    string
	props       []Prop
	errorers    []ValidationErrorer
	concurrency int
}

// Component returns the component name rendered by the response.
func (resp *Response) Component() string { return resp.component }

// WithViewData sets custom data passed to the root template as TemplateData.T.
func (resp *Response) WithViewData(data any) *Response {
	resp.viewData = data
	return resp
}

// WithProps appends props, overriding earlier ones with the same key.
func (resp *Response) WithProps(props Proper) *Response {
	if props != nil {
		resp.props = append(resp.props, props.Props()...)
	}

	return resp
}

// WithValidationErrors adds validation errors sent in the "errors" prop.
//
// The errorBag scopes the errors to a specific form on the page.
func (resp *Response) WithValidationErrors(errorer ValidationErrorer, errorBag string) *Response {
	if errorer == nil {
		return resp
	}

	resp.errorers = append(resp.errorers, errorer)
	resp.errorBag = errorBag

	return resp
}

// WithConcurrency sets the maximum number of lazy values resolved
// concurrently for this response.
//
// A value of 0 uses the factory's default. Negative values mean
// unlimited concurrent resolution.
func (resp *Response) WithConcurrency(concurrency int) *Response {
	resp.concurrency = concurrency
	return resp
}

// Write sends the response, automatically choosing the format:
//   - JSON for Inertia requests (XHR navigation)
//   - HTML for initial page loads or non-Inertia requests
//
// A protocol-aware GET request carrying a stale asset version receives
// a forced reload instead of a page.
func (resp *Response) Write(w http.ResponseWriter, r *http.Request) error {
	if isInertiaRequest(r) && r.Method == http.MethodGet && resp.f.versionMismatch(r) {
		d("Asset version mismatch, forcing a full reload of %s", r.URL.RequestURI())

		forceReload(w, r)

		return nil
	}

	ctx, _ := ensureState(r.Context())

	page, err := resp.page(ctx, r)
	if err != nil {
		return err
	}

	if isInertiaRequest(r) {
		d("Received inertia request, sending JSON response: %s",
			r.Header.Get(inertiaheader.HeaderReferer))

		b, err := inertiajson.Marshal(page, resp.f.jsonMarshalOptions...)
		if err != nil {
			return fmt.Errorf("inertia: failed to encode JSON response: %w", err)
		}

		w.Header().Set(inertiaheader.HeaderXInertia, "true")
		w.Header().Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeJSON)
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("inertia: failed to write JSON response: %w", err)
		}

		return nil
	}

	//nolint:exhaustruct
	data := &TemplateData{T: resp.viewData, Page: page, ctx: ctx, f: resp.f}

	var buf bytes.Buffer
	if err := resp.f.t.Execute(&buf, data); err != nil {
		return fmt.Errorf("inertia: failed to execute HTML template: %w", err)
	}

	w.Header().Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("inertia: failed to write HTML response: %w", err)
	}

	return nil
}

// Page builds the page object for r without writing it.
func (resp *Response) Page(r *http.Request) (*Page, error) {
	return resp.page(r.Context(), r)
}

func (resp *Response) page(ctx context.Context, r *http.Request) (*Page, error) {
	props, err := resp.resolveProps(ctx, r)
	if err != nil {
		return nil, err
	}

	var version *string
	if v, ok := resp.f.Version(); ok {
		version = &v
	}

	return &Page{
		Component: resp.component,
		Props:     props,
		URL:       r.URL.RequestURI(),
		Version:   version,
	}, nil
}

// allProps returns the validation errors prop followed by the response
// props, with later keys replacing earlier ones in place.
func (resp *Response) allProps() []Prop {
	props := make([]Prop, 0, len(resp.props)+1)
	props = append(props, makeValidationErrors(resp.errorers, resp.errorBag))
	props = append(props, resp.props...)

	index := make(map[string]int, len(props))
	unique := props[:0]

	for _, p := range props {
		if i, ok := index[p.key]; ok {
			unique[i] = p
			continue
		}

		index[p.key] = len(unique)
		unique = append(unique, p)
	}

	return unique
}

func (resp *Response) resolveProps(ctx context.Context, r *http.Request) (map[string]any, error) {
	filter := partialFilterFromRequest(r, resp.component)
	props := resp.allProps()
	m := make(map[string]any, len(props))
	concurrentProps := make([]Prop, 0, len(props))

	for _, prop := range props {
		if !filter.includes(prop) {
			continue
		}

		if prop.concurrent() {
			concurrentProps = append(concurrentProps, prop)
			continue
		}

		val, err := prop.value(ctx)
		if err != nil {
			return nil, fmt.Errorf("inertia: failed to resolve prop %s: %w", prop.key, err)
		}

		m[prop.key] = val
	}

	if len(concurrentProps) > 0 {
		concurrency := max(cmp.Or(resp.concurrency, resp.f.concurrency), 0)
		if err := resolveConcurrently(ctx, m, concurrentProps, concurrency); err != nil {
			return nil, err
		}
	}

	return inertiajson.BreakCycles(m), nil
}

func resolveConcurrently(ctx context.Context, m map[string]any, props []Prop, concurrency int) error {
	pool := pond.NewResultPool[pair[string, any]](concurrency)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)

	for _, prop := range props {
		group.SubmitErr(func() (pair[string, any], error) {
			var kv pair[string, any]

			val, err := prop.value(ctx)
			if err != nil {
				return kv, fmt.Errorf("inertia: failed to resolve prop %s: %w", prop.key, err)
			}

			kv.key = prop.key
			kv.value = val

			return kv, nil
		})
	}

	result, err := group.Wait()
	if err != nil {
		return fmt.Errorf("inertia: failed to resolve concurrent props: %w", err)
	}

	for _, kv := range result {
		m[kv.key] = kv.value
	}

	return nil
}

// partialFilter selects the props of a partial reload.
type partialFilter struct {
	only   []string
	except []string
	active bool
}

// partialFilterFromRequest returns the filter requested by r for component.
//
// Partial reload headers that name no key are ignored and every prop is
// resolved.
func partialFilterFromRequest(r *http.Request, component string) partialFilter {
	if !isInertiaRequest(r) ||
		r.Header.Get(inertiaheader.HeaderXInertiaPartialComponent) != component {
		return partialFilter{} //nolint:exhaustruct
	}

	only := extractHeaderValueList(r.Header.Get(inertiaheader.HeaderXInertiaPartialData))
	except := extractHeaderValueList(r.Header.Get(inertiaheader.HeaderXInertiaPartialExcept))

	if len(only) == 0 && len(except) == 0 {
		d("partial reload of %s without prop keys, resolving all props", component)

		return partialFilter{} //nolint:exhaustruct
	}

	return partialFilter{only: only, except: except, active: true}
}

func (pf partialFilter) includes(p Prop) bool {
	if !pf.active || p.always {
		return true
	}

	// It should be fine to go through slices here, as the number of props is expected to be small.
	if len(pf.only) > 0 && !slices.Contains(pf.only, p.key) {
		return false
	}

	return !slices.Contains(pf.except, p.key)
}

// TemplateData contains the data passed to the root template during rendering.
//
// The template renders the page with {{ .InertiaHead }} and {{ .InertiaBody }}.
type TemplateData struct {
	// T is custom application data available to the template.
	T any

	// Page is the page being rendered.
	Page *Page

	ctx context.Context //nolint:containedctx
	f   *Factory
}

// InertiaHead returns the SSR-generated head elements, or empty content.
func (td *TemplateData) InertiaHead() template.HTML {
	return td.f.RenderHead(td.ctx, td.Page)
}

// InertiaBody returns the SSR-generated body, or the root element with
// the page embedded for client-side rendering.
func (td *TemplateData) InertiaBody() (template.HTML, error) {
	return td.f.RenderBody(td.ctx, td.Page)
}

// isInertiaRequest checks if the request is made by Inertia.js.
func isInertiaRequest(req *http.Request) bool {
	return req.Header.Get(inertiaheader.HeaderXInertia) == "true"
}

// extractHeaderValueList extracts a list of values from a comma-separated header value.
// Blank entries are dropped.
func extractHeaderValueList(h string) []string {
	if strings.TrimSpace(h) == "" {
		return nil
	}

	var fields []string

	for f := range strings.SplitSeq(h, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	return fields
}
