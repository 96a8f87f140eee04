package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopnav"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	StreamsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_streams_open",
			Help:      "Current number of open navigation event streams",
		},
	)
)

// Navigation metrics
var (
	NavRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "renders_total",
			Help:      "Total number of navigation renders",
		},
		[]string{"layout"}, // "full" or "compact"
	)

	ScrollTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "scroll_transitions_total",
			Help:      "Total number of scrolled-treatment transitions",
		},
		[]string{"scrolled"},
	)

	ScrollSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "scroll_subscriptions",
			Help:      "Current number of attached scroll listeners",
		},
	)

	LinkClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "link_clicks_total",
			Help:      "Total number of navigation link activations",
		},
		[]string{"outcome"}, // "followed" or "suppressed"
	)

	ViewportReports = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "viewport_reports_total",
			Help:      "Total number of viewport reports received from browsers",
		},
	)
)

// Session metrics
var (
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Current number of visitor sessions held in memory",
		},
	)

	HydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_hydrations_total",
			Help:      "Total number of application state hydrations",
		},
		[]string{"status"},
	)
)

// Link click outcomes.
const (
	OutcomeFollowed   = "followed"
	OutcomeSuppressed = "suppressed"
)
