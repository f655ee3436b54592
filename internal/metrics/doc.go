// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry via promauto, so the
package is usable with a plain import and the standard promhttp handler.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:9330/metrics

# Available Metrics

Learning Metrics:
  - suggestions_total: Brew suggestions served (counter)
    Labels: mode (explore, exploit, baseline)
  - evaluations_total: Evaluations learned from (counter)
  - brew_reward: Reward distribution (histogram)
    Buckets: linear from -1.0 to 1.0
  - agent_epsilon: Current exploration rate (gauge)
  - qtable_states / qtable_entries: Q-table size (gauges)
  - qtable_saves_total / qtable_save_errors_total: Snapshot persistence (counters)
  - qtable_last_save_timestamp: Unix timestamp of last successful save (gauge)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total / websocket_messages_received_total (counters)
  - websocket_errors_total: Errors by type (counter)

Event Pipeline Metrics:
  - events_published_total / events_consumed_total (counters)
    Labels: topic
  - events_parse_failed_total: Undecodable events (counter)
  - event_processing_duration_seconds: Handler execution time (histogram)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

System Metrics:
  - app_info: Version and build information (gauge)
    Labels: version, go_version
  - app_uptime_seconds: Application uptime (gauge)

# Usage

Record metrics through the helper functions rather than the collectors:

	metrics.RecordSuggestion("exploit")
	metrics.RecordEvaluation(0.78)
	metrics.RecordDBQuery("insert", "brew_records", elapsed, err)

The helpers keep label cardinality bounded and apply consistent error
truncation.
*/
package metrics
