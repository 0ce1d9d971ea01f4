// Package metrics holds the Prometheus collectors of the manseryeok service.
//
// Every method is safe on a nil *Metrics, so components take metrics as an
// optional dependency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "manse"

// Metrics is a registry plus the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	Calculations        *prometheus.CounterVec
	CalculationDuration prometheus.Histogram

	CrossRefLookups  *prometheus.CounterVec
	CrossRefDuration *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculations_total",
				Help:      "Chart calculations by result code (ok on success).",
			},
			[]string{"result"},
		),

		CalculationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "calculation_duration_seconds",
				Help:      "Time spent producing a chart, including any cross reference lookup.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
		),

		CrossRefLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "crossref_lookups_total",
				Help:      "Cross reference lookups by stage (cache, remote) and result.",
			},
			[]string{"stage", "result"},
		),

		CrossRefDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "crossref_duration_seconds",
				Help:      "Duration of cross reference lookups by stage.",
				Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"stage"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "crossref_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"breaker"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Calculations,
		m.CalculationDuration,
		m.CrossRefLookups,
		m.CrossRefDuration,
		m.BreakerState,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCalculation records one chart calculation. result is "ok" or the
// engine's error code.
func (m *Metrics) ObserveCalculation(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(result).Inc()
	m.CalculationDuration.Observe(d.Seconds())
}

// ObserveLookup records a cross reference lookup at one stage.
func (m *Metrics) ObserveLookup(stage, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CrossRefLookups.WithLabelValues(stage, result).Inc()
	m.CrossRefDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetBreakerState publishes a circuit breaker's state.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
