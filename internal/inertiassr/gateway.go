package inertiassr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.inout.gg/foundations/debug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"go.inout.gg/inertiacore/internal/inertiabase"
	"go.inout.gg/inertiacore/internal/inertiaheader"
	"go.inout.gg/inertiacore/internal/inertiajson"
)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/ssr")

var _ Gateway = (*httpGateway)(nil)

// DefaultTracerName is the tracer used for dispatch spans.
const DefaultTracerName = "go.inout.gg/inertiacore"

// ErrUnexpectedStatus is returned when the rendering service answers
// with a non-2xx status code.
var ErrUnexpectedStatus = errors.New("inertia: unexpected SSR status code")

// Result contains the HTML head and body fragments produced by the
// rendering service.
type Result struct {
	Head string `json:"head"`
	Body string `json:"body"`
}

//go:generate mockgen -destination gateway_mock.go -package inertiassr . Gateway
type Gateway interface {
	// Dispatch sends the page to the rendering service at url and returns
	// the rendered fragments.
	//
	// A non-nil error means the service was unreachable, timed out or
	// answered with something other than a rendered page.
	Dispatch(ctx context.Context, page *inertiabase.Page, url string) (*Result, error)
}

// Config configures the HTTP gateway instrumentation.
type Config struct {
	// Metrics records dispatch outcomes. If nil, dispatches are not measured.
	Metrics *Metrics

	// TracerName names the tracer taken from the global provider.
	//
	// Defaults to DefaultTracerName.
	TracerName string
}

// httpGateway dispatches pages to a rendering service over HTTP.
// It holds no per-call state.
type httpGateway struct {
	client  *http.Client
	tracer  trace.Tracer
	metrics *Metrics
}

// NewHTTPGateway creates a Gateway posting pages to the rendering service
// with client.
func NewHTTPGateway(client *http.Client, config *Config) Gateway {
	debug.Assert(client != nil, "client must be provided")

	if config == nil {
		//nolint:exhaustruct
		config = &Config{}
	}

	tracerName := config.TracerName
	if tracerName == "" {
		tracerName = DefaultTracerName
	}

	return &httpGateway{
		client:  client,
		tracer:  otel.Tracer(tracerName),
		metrics: config.Metrics,
	}
}

func (g *httpGateway) Dispatch(ctx context.Context, p *inertiabase.Page, url string) (res *Result, err error) {
	debug.Assert(p != nil, "page must be set")

	ctx, span := g.tracer.Start(ctx, "inertia.ssr.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("inertia.component", p.Component),
			attribute.String("inertia.ssr.url", url),
		),
	)
	start := time.Now()

	defer func() {
		outcome := Outcome(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.SetAttributes(attribute.String("inertia.ssr.outcome", outcome))
		span.End()

		g.metrics.observe(outcome, time.Since(start))
	}()

	b, err := inertiajson.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to marshal page: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to create HTTP request: %w", err)
	}

	r.Header.Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeJSON)

	resp, err := g.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data wireResult
	if err := json.UnmarshalRead(resp.Body, &data); err != nil {
		return nil, fmt.Errorf("inertia: failed to decode JSON response: %w", err)
	}

	head, err := data.head()
	if err != nil {
		return nil, err
	}

	d("rendered %s via %s", p.Component, url)

	return &Result{Head: head, Body: data.Body}, nil
}

// wireResult is the rendering service reply. The head is either a single
// string or a list of tags.
type wireResult struct {
	Head jsontext.Value `json:"head"`
	Body string         `json:"body"`
}

func (w *wireResult) head() (string, error) {
	raw := bytes.TrimSpace(w.Head)
	if len(raw) == 0 {
		return "", nil
	}

	switch raw[0] {
	case 'n':
		return "", nil
	case '[':
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return "", fmt.Errorf("inertia: failed to decode SSR head: %w", err)
		}

		return strings.Join(tags, "\n"), nil
	default:
		var head string
		if err := json.Unmarshal(raw, &head); err != nil {
			return "", fmt.Errorf("inertia: failed to decode SSR head: %w", err)
		}

		return head, nil
	}
}
