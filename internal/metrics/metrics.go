// Package metrics exposes Prometheus collectors for the dashboard and the
// ingestion service.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cseguard"

var (
	reg = prometheus.NewRegistry()

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request duration",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limiter_rejected_total", Help: "Requests rejected by rate limiter"},
	)
	ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "imports_total", Help: "Bulk imports by result"},
		[]string{"result"},
	)
	ImportRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_records",
			Help:      "Records submitted per bulk import",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Bulk import duration from read to reconcile",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	DomainsAddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "domains_added_total", Help: "CSE domains added to monitoring"},
	)
	DomainsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "domains_skipped_total", Help: "CSE domains skipped by reason"},
		[]string{"reason"},
	)
	BlocklistSizeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "blocklist_domains", Help: "Current number of blocklisted domains"},
	)
	EventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "event_subscribers", Help: "Connected notification stream clients"},
	)
)

// Import results used as the ImportsTotal label.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

// Skip reasons used as the DomainsSkippedTotal label.
const (
	SkipExisting  = "existing"
	SkipMalicious = "malicious"
)

var registered atomic.Bool

// Register adds every collector to the registry once.
func Register() {
	if registered.Swap(true) {
		return
	}
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, RateLimitRejectedTotal,
		ImportsTotal, ImportRecords, ImportDuration,
		DomainsAddedTotal, DomainsSkippedTotal,
		BlocklistSizeGauge, EventSubscribers,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveRequest records metrics for a request. route should be the router
// pattern, not the raw path, to bound label cardinality.
func ObserveRequest(method, route string, statusCode int, dur time.Duration) {
	Register()
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

// ObserveImport records one finished import.
func ObserveImport(result string, records int, dur time.Duration) {
	Register()
	ImportsTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		ImportRecords.Observe(float64(records))
		ImportDuration.Observe(dur.Seconds())
	}
}

// ObserveBulkAdd records the outcome of one bulk insert.
func ObserveBulkAdd(added, existing, malicious int) {
	Register()
	DomainsAddedTotal.Add(float64(added))
	DomainsSkippedTotal.WithLabelValues(SkipExisting).Add(float64(existing))
	DomainsSkippedTotal.WithLabelValues(SkipMalicious).Add(float64(malicious))
}
