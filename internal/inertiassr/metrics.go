package inertiassr

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcomes used as the "outcome" metric label.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
	OutcomeBadStatus = "bad_status"
	OutcomeError     = "error"
)

// Metrics holds the Prometheus collectors for SSR dispatches.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics creates the dispatch collectors and registers them with reg.
//
// Collectors already registered with reg are reused, so several gateways
// may share one registry.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ssr",
			Name:      "dispatch_total",
			Help:      "Total number of SSR dispatches by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ssr",
			Name:      "dispatch_duration_seconds",
			Help:      "SSR dispatch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.dispatches = register(reg, m.dispatches)
	m.duration = register(reg, m.duration)

	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}

		d("failed to register SSR collector: %v", err)
	}

	return c
}

// Dispatches returns the dispatch counter for outcome.
func (m *Metrics) Dispatches(outcome string) prometheus.Counter {
	return m.dispatches.WithLabelValues(outcome)
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.dispatches.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Outcome classifies a dispatch error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, ErrUnexpectedStatus):
		return OutcomeBadStatus
	default:
		return OutcomeError
	}
}
