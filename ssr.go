package inertiacore

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"go.inout.gg/inertiacore/internal/inertiassr"
)

type (
	// Gateway dispatches pages to a server-side rendering service.
	Gateway = inertiassr.Gateway

	// GatewayConfig configures the instrumentation of the HTTP gateway.
	GatewayConfig = inertiassr.Config

	// SSRMetrics holds the Prometheus collectors for SSR dispatches.
	SSRMetrics = inertiassr.Metrics

	// SSRResult contains the HTML head and body sections returned by SSR rendering.
	SSRResult = inertiassr.Result
)

// ErrUnexpectedSSRStatus is returned by the HTTP gateway when the
// rendering service answers with a non-2xx status.
var ErrUnexpectedSSRStatus = inertiassr.ErrUnexpectedStatus

// NewHTTPGateway creates an HTTP-based Gateway.
// If client is nil, http.DefaultClient is used.
func NewHTTPGateway(client *http.Client, config *GatewayConfig) Gateway {
	if client == nil {
		client = http.DefaultClient
	}

	return inertiassr.NewHTTPGateway(client, config)
}

// NewSSRMetrics creates SSR dispatch collectors registered with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewSSRMetrics(reg prometheus.Registerer, namespace string) *SSRMetrics {
	return inertiassr.NewMetrics(reg, namespace)
}
