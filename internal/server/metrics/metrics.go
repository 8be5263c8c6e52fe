// Package metrics defines the Prometheus metrics for the farmhand server.
//
// Metrics live on a per-server registry so that several servers (as in
// tests) never collide on registration.
//
// Naming follows Prometheus conventions:
//   - farmhand_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token resolution results recorded by the request filter.
const (
	TokenAbsent         = "absent"
	TokenRejected       = "rejected"
	TokenUnknownSubject = "unknown_subject"
	TokenStoreError     = "store_error"
	TokenInvalid        = "invalid"
	TokenResolved       = "resolved"
)

type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests by method, route and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds is a histogram of request latency by route.
	RequestDurationSeconds *prometheus.HistogramVec

	// AuthOutcomesTotal counts register and login attempts by outcome.
	AuthOutcomesTotal *prometheus.CounterVec

	// TokenResolutionsTotal counts what the request filter made of the
	// Authorization header.
	TokenResolutionsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farmhand_http_requests_total",
				Help: "Total HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "farmhand_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		AuthOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farmhand_auth_outcomes_total",
				Help: "Register and login attempts by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		TokenResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "farmhand_token_resolutions_total",
				Help: "Bearer token resolutions by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSeconds,
		m.AuthOutcomesTotal,
		m.TokenResolutionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// All Record methods are no-ops on a nil *Metrics.

func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDurationSeconds.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthOutcomesTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordTokenResolution(result string) {
	if m == nil {
		return
	}
	m.TokenResolutionsTotal.WithLabelValues(result).Inc()
}
