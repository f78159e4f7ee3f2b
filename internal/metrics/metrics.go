// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so several instances can coexist in tests.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Mutations         *prometheus.CounterVec
	LedgerTransitions *prometheus.CounterVec
	LedgerFailures    *prometheus.CounterVec
	LedgerRetries     *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Graph mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		LedgerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_transitions_total",
				Help:      "Interaction flags set for the first time, by action kind",
			},
			[]string{"kind"},
		),
		LedgerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_failures_total",
				Help:      "Ledger writes that failed after the primary write committed",
			},
			[]string{"kind"},
		),
		LedgerRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_retries_total",
				Help:      "Ledger writes retried after a concurrency conflict",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.LedgerTransitions,
		c.LedgerFailures,
		c.LedgerRetries,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveMutation(op string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Mutations.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) LedgerTransition(kind string) {
	if c == nil {
		return
	}
	c.LedgerTransitions.WithLabelValues(kind).Inc()
}

func (c *Collector) LedgerFailure(kind string) {
	if c == nil {
		return
	}
	c.LedgerFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) LedgerRetry(kind string) {
	if c == nil {
		return
	}
	c.LedgerRetries.WithLabelValues(kind).Inc()
}
