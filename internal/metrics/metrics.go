// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package metrics defines the Prometheus collectors exposed on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to make them visible.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Airtable (record store)

	AirtableRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airtable_requests_total",
			Help: "Total number of HTTP calls made to the Airtable API",
		},
		[]string{"table", "method", "status_code"},
	)

	AirtableRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airtable_request_duration_seconds",
			Help:    "Airtable API call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"table", "method"},
	)

	AirtableRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airtable_rate_limit_retries_total",
			Help: "Total number of retries after an HTTP 429 from Airtable",
		},
		[]string{"table"},
	)

	// Analytics

	AnalyticsComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_compute_duration_seconds",
			Help:    "Time spent fetching and aggregating an analytics response",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"range"},
	)

	AnalyticsAppointmentsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_appointments_scanned",
			Help:    "Number of appointment records scanned per analytics request",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	// Name cache

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache", "kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache", "kind"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	NameResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "name_resolution_failures_total",
			Help: "Linked-record lookups that fell back to a placeholder name",
		},
		[]string{"kind"},
	)

	// WebSocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active dashboard WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Broadcasts dropped because the hub buffer was full",
		},
	)

	// Circuit breakers

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Messaging and notifications

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_messages_total",
			Help: "Messages handled by the messaging gateway integration",
		},
		[]string{"direction", "result"}, // direction: outbound, inbound
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "New-message notifications published to the pub/sub transport",
		},
		[]string{"transport", "result"},
	)

	NotificationsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_forwarded_total",
			Help: "Notifications forwarded from pub/sub to dashboard WebSocket clients",
		},
	)

	// System

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments (inc=true) or decrements the active gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAirtableRequest records one HTTP round trip to Airtable. A status of
// 0 means the request never got a response.
func RecordAirtableRequest(table, method string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	AirtableRequestsTotal.WithLabelValues(table, method, code).Inc()
	AirtableRequestDuration.WithLabelValues(table, method).Observe(duration.Seconds())
}

// RecordAnalytics records one analytics computation.
func RecordAnalytics(rangeName string, scanned int, duration time.Duration) {
	AnalyticsComputeDuration.WithLabelValues(rangeName).Observe(duration.Seconds())
	AnalyticsAppointmentsScanned.Observe(float64(scanned))
}

// RecordMessage records an inbound or outbound message.
func RecordMessage(direction string, err error) {
	MessagesSent.WithLabelValues(direction, resultLabel(err)).Inc()
}

// RecordNotificationPublish records a pub/sub publish attempt.
func RecordNotificationPublish(transport string, err error) {
	NotificationsPublished.WithLabelValues(transport, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
