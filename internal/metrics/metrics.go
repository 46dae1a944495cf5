// Package metrics provides Prometheus metrics for SkyWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "skywatch"
)

// Alert lifecycle metrics
var (
	// AlertsCreated counts accepted alerts by kind.
	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Total alerts accepted by the store",
		},
		[]string{"kind"},
	)

	// AlertsSuppressed counts candidates rejected by cooldown.
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "suppressed_total",
			Help:      "Total alert candidates suppressed by cooldown",
		},
	)

	// AlertsResolved counts resolved alerts, including auto-resolution.
	AlertsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "resolved_total",
			Help:      "Total alerts resolved",
		},
	)

	// OpenAlerts tracks the current open set size.
	OpenAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "open",
			Help:      "Number of currently open alerts",
		},
	)
)

// Scan metrics
var (
	// ScansTotal counts scheduler scans by type and outcome.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "total",
			Help:      "Total scheduler scans by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// ScanDuration tracks proximity scan latency.
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Proximity scan duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	// CandidatesTotal counts classifier candidates by kind.
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Total alert candidates produced by the classifier",
		},
		[]string{"kind"},
	)
)

// Feed metrics
var (
	// TrackedAircraft tracks the current aircraft table size.
	TrackedAircraft = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "tracked_aircraft",
			Help:      "Number of aircraft currently tracked",
		},
	)

	// FeedFetchErrors counts failed feed fetches.
	FeedFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_errors_total",
			Help:      "Total failed aircraft feed fetches",
		},
	)
)

// Notification metrics
var (
	// NotificationsSent counts successful notifier deliveries.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Total notifications delivered",
		},
		[]string{"notifier"},
	)

	// NotificationsFailed counts failed notifier deliveries.
	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "failed_total",
			Help:      "Total failed notification deliveries",
		},
		[]string{"notifier"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks concurrent in-flight requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)
