// Package metrics exposes Prometheus collectors for the exporter.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Row outcomes recorded by the row source.
const (
	RowExported = "exported"
	RowArchived = "archived"
)

var (
	rowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aka_rows_total",
			Help: "Total number of table rows read, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aka_probes_total",
			Help: "Total number of completed URL probes, labeled by status class.",
		},
		[]string{"class"},
	)

	probeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aka_probe_retries_total",
			Help: "Total number of probe attempts retried after a transient failure.",
		},
	)

	probeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aka_probe_duration_seconds",
			Help:    "Histogram of end-to-end probe durations including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	activeProbes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aka_active_probes",
			Help: "Number of probes currently in flight.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aka_http_requests_total",
			Help: "Requests served by the metrics listener, labeled by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aka_rate_limit_delays_seconds",
			Help:    "Histogram of per-host rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRow counts one table row by outcome.
func ObserveRow(outcome string) {
	rowsTotal.WithLabelValues(outcome).Inc()
}

// ObserveProbe records a finished probe.
func ObserveProbe(class string, duration time.Duration) {
	probesTotal.WithLabelValues(class).Inc()
	probeDurationSeconds.Observe(duration.Seconds())
}

// ObserveRetry counts one retried attempt.
func ObserveRetry() {
	probeRetriesTotal.Inc()
}

// IncActiveProbes increments the in-flight probe gauge.
func IncActiveProbes() {
	activeProbes.Inc()
}

// DecActiveProbes decrements the in-flight probe gauge.
func DecActiveProbes() {
	activeProbes.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveHTTPRequest counts one request served by the metrics listener.
func ObserveHTTPRequest(method, route string, code int) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
