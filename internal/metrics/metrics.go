// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the brewing engine:
// - Suggestion and evaluation throughput per learning mode
// - Reward distribution and exploration rate
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - WebSocket connections
// - Event pipeline throughput

var (
	// Learning Metrics
	SuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_total",
			Help: "Total number of brew suggestions served",
		},
		[]string{"mode"}, // "explore", "exploit", "baseline"
	)

	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Total number of brew evaluations learned from",
		},
	)

	BrewReward = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brew_reward",
			Help:    "Distribution of rewards computed from brew evaluations",
			Buckets: prometheus.LinearBuckets(-1.0, 0.25, 9), // reward is clamped to [-1, 1]
		},
	)

	AgentEpsilon = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_epsilon",
			Help: "Current exploration rate of the active agent",
		},
	)

	QTableStates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qtable_states",
			Help: "Number of states with at least one learned value in the active Q-table",
		},
	)

	QTableEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qtable_entries",
			Help: "Total number of learned state-action values in the active Q-table",
		},
	)

	// Snapshot Persistence Metrics
	QTableSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qtable_saves_total",
			Help: "Total number of Q-table snapshot saves",
		},
	)

	QTableSaveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qtable_save_errors_total",
			Help: "Total number of failed Q-table snapshot saves",
		},
	)

	QTableLastSave = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qtable_last_save_timestamp",
			Help: "Unix timestamp of the last successful Q-table snapshot save",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of security audit events recorded",
		},
		[]string{"type", "outcome"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Event Pipeline Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of brew events published",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of brew events consumed by handlers",
		},
		[]string{"topic"},
	)

	EventsParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_parse_failed_total",
			Help: "Total number of brew events that failed to deserialize",
		},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of brew event handler execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
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

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordSuggestion records a served suggestion and the mode that produced it.
func RecordSuggestion(mode string) {
	SuggestionsTotal.WithLabelValues(mode).Inc()
}

// RecordEvaluation records a learned evaluation and its computed reward.
func RecordEvaluation(reward float64) {
	EvaluationsTotal.Inc()
	BrewReward.Observe(reward)
}

// SetEpsilon updates the exploration rate gauge for the active agent.
func SetEpsilon(value float64) {
	AgentEpsilon.Set(value)
}

// SetQTableSize updates the Q-table size gauges for the active agent.
func SetQTableSize(states, entries int) {
	QTableStates.Set(float64(states))
	QTableEntries.Set(float64(entries))
}

// RecordSnapshotSave records a Q-table snapshot save attempt.
func RecordSnapshotSave(err error) {
	QTableSaves.Inc()
	if err != nil {
		QTableSaveErrors.Inc()
	} else {
		QTableLastSave.Set(float64(time.Now().Unix()))
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuditEvent records a security audit event accepted for persistence.
func RecordAuditEvent(eventType, outcome string) {
	AuditEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordRateLimitHit records a rate limit rejection for an endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// TrackWSConnection tracks WebSocket connection counts.
func TrackWSConnection(inc bool) {
	if inc {
		WSConnections.Inc()
	} else {
		WSConnections.Dec()
	}
}

// RecordWSMessageSent records an outbound WebSocket message.
func RecordWSMessageSent() {
	WSMessagesSent.Inc()
}

// RecordWSMessageReceived records an inbound WebSocket message.
func RecordWSMessageReceived() {
	WSMessagesReceived.Inc()
}

// RecordWSError records a WebSocket error by type.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// RecordEventPublished records a brew event published to a topic.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records a brew event consumed from a topic.
func RecordEventConsumed(topic string) {
	EventsConsumed.WithLabelValues(topic).Inc()
}

// RecordEventParseFailure records a brew event that failed to deserialize.
func RecordEventParseFailure() {
	EventsParseFailed.Inc()
}

// RecordEventProcessing records the duration of an event handler execution.
func RecordEventProcessing(duration time.Duration) {
	EventProcessingDuration.Observe(duration.Seconds())
}

// SetCircuitBreakerState updates the state gauge for a named circuit breaker.
// State values: 0=closed, 1=half-open, 2=open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTransition records a state transition for a named
// circuit breaker.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetAppInfo publishes version and build information as a labeled gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetUptime updates the application uptime gauge.
func SetUptime(uptime time.Duration) {
	AppUptime.Set(uptime.Seconds())
}
