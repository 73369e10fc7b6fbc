// Package metrics registers the Prometheus collectors exposed on
// /metrics. Collectors are package-level and registered once via
// promauto on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts finished HTTP requests by route pattern.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forumd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Finished HTTP requests.",
	}, []string{"method", "route", "status"})

	// RequestDuration observes request latency by route pattern.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "forumd",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// InflightRequests gauges requests currently being served.
	InflightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "forumd",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Requests currently in flight.",
	})

	// LoginsTotal counts login completions by provider and outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forumd",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by provider and result.",
	}, []string{"provider", "result"})
)

// ObserveLogin records a login attempt outcome.
func ObserveLogin(provider string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	LoginsTotal.WithLabelValues(provider, result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
