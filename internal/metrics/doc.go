// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Recommendation Metrics:
  - recommendations_total: Served queries (counter)
    Labels: kind (user, similar), source (personalized, fallback), reason
  - recommendation_duration_seconds: Query latency (histogram)
  - recommendation_model_failures_total: Model errors and panics (counter)

Snapshot Metrics:
  - snapshot_version, snapshot_users, snapshot_products: Served snapshot (gauges)
  - snapshot_swaps_total: Hot swaps (counter)
  - snapshot_reload_errors_total: Reloads that kept the previous snapshot (counter)
  - snapshot_io_duration_seconds, snapshot_io_errors_total: Persistence
  - catalog_products: Enrichment catalog size (gauge)

Training Metrics:
  - training_duration_seconds, training_runs_total
  - interactions_applied_total, interactions_rejected_total

Feedback Metrics:
  - feedback_received_total, feedback_rejected_total
  - feedback_pending: Records awaiting forwarding (gauge)
  - feedback_forwarded_total: Forwarding attempts by result (counter)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total, circuit_breaker_state_transitions_total

# Cardinality

Labels never carry user or product ids. Endpoint labels use the chi route
pattern rather than the raw path.

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
