// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	balanceComputations *prometheus.CounterVec
	suggestions         prometheus.Histogram
	invariantViolations prometheus.Counter
	eventsPublished     *prometheus.CounterVec
}

// New registers the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "http_requests_total",
			Help:      "HTTP and RPC requests by route and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "settleup",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		balanceComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "balance_computations_total",
			Help:      "Balance computations by outcome.",
		}, []string{"outcome"}),
		suggestions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "settleup",
			Name:      "settlement_suggestions",
			Help:      "Number of suggested transfers per balance computation.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		invariantViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "ledger_invariant_violations_total",
			Help:      "Ledgers found inconsistent while computing balances.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "events_published_total",
			Help:      "Ledger events handed to the publisher by type and outcome.",
		}, []string{"type", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.balanceComputations,
		m.suggestions,
		m.invariantViolations,
		m.eventsPublished,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format. A nil
// Metrics has nothing to expose and answers 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveBalances records a successful computation and its suggestion count.
func (m *Metrics) ObserveBalances(suggestions int) {
	if m == nil {
		return
	}
	m.balanceComputations.WithLabelValues("ok").Inc()
	m.suggestions.Observe(float64(suggestions))
}

// ObserveBalanceError records a failed computation. Invariant violations are
// also counted separately.
func (m *Metrics) ObserveBalanceError(invariant bool) {
	if m == nil {
		return
	}
	m.balanceComputations.WithLabelValues("error").Inc()
	if invariant {
		m.invariantViolations.Inc()
	}
}

// ObserveEvent records a publish attempt.
func (m *Metrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}
