// Package metrics provides Prometheus metrics collection for taskgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for taskgate.
type Collector struct {
	// Inbound HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Rate limit metrics
	RateLimitHits prometheus.Counter

	// Dispatch metrics: capability calls crossing a module boundary
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	DispatchRetries  *prometheus.CounterVec

	// Health metrics
	ProbeFailures *prometheus.CounterVec
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newWith(promauto.With(reg))
}

func newWith(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskgate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskgate",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "taskgate",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		RateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "taskgate",
				Name:      "rate_limit_hits_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskgate",
				Name:      "dispatch_total",
				Help:      "Total capability calls by module, strategy and outcome",
			},
			[]string{"module", "mode", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskgate",
				Name:      "dispatch_duration_seconds",
				Help:      "Capability call duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"module", "mode"},
		),
		DispatchRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskgate",
				Name:      "dispatch_retries_total",
				Help:      "Total retry attempts against remote module endpoints",
			},
			[]string{"module"},
		),
		ProbeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskgate",
				Name:      "probe_failures_total",
				Help:      "Total health probe failures by probe name",
			},
			[]string{"probe"},
		),
	}
}

// Outcome labels for DispatchTotal.
const (
	OutcomeOK          = "ok"
	OutcomeValidation  = "validation"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeUnexpected  = "unexpected"
)
