// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
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

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation queries served",
		},
		[]string{"kind", "source", "reason"}, // kind: "user", "similar"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Recommendation query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"kind"},
	)

	RecommendationModelFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_model_failures_total",
			Help: "Total number of model query failures converted to fallback",
		},
		[]string{"kind"},
	)

	// Snapshot Metrics
	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_version",
			Help: "Version of the snapshot currently served",
		},
	)

	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_users",
			Help: "Number of users known to the served snapshot",
		},
	)

	SnapshotProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_products",
			Help: "Number of products known to the served snapshot",
		},
	)

	SnapshotSwaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_swaps_total",
			Help: "Total number of snapshot hot swaps",
		},
	)

	SnapshotReloadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_reload_errors_total",
			Help: "Total number of failed snapshot reloads",
		},
		[]string{"reason"},
	)

	SnapshotIODuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshot_io_duration_seconds",
			Help:    "Duration of snapshot persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "save", "load"
	)

	SnapshotIOErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_io_errors_total",
			Help: "Total number of snapshot persistence errors",
		},
		[]string{"operation"},
	)

	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products in the enrichment catalog",
		},
	)

	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of incremental model refits in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of incremental model refits",
		},
		[]string{"result"}, // "success", "failure"
	)

	InteractionsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interactions_applied_total",
			Help: "Total number of interactions merged into the matrix",
		},
	)

	InteractionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_rejected_total",
			Help: "Total number of interactions rejected during ingest",
		},
		[]string{"reason"},
	)

	// Feedback Metrics
	FeedbackReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_received_total",
			Help: "Total number of accepted feedback submissions",
		},
		[]string{"action"},
	)

	FeedbackRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_rejected_total",
			Help: "Total number of rejected feedback submissions",
		},
		[]string{"reason"}, // "malformed", "unknown_user", "unknown_product", "store"
	)

	FeedbackPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedback_pending",
			Help: "Number of feedback records awaiting forwarding",
		},
	)

	FeedbackForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_forwarded_total",
			Help: "Total number of feedback forwarding attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	FeedbackMaxAttemptsExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_max_attempts_exceeded_total",
			Help: "Total number of feedback records moved to failed after exhausting publish attempts",
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

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
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

// RecordRateLimitHit records a request rejected by the rate limiter
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordRecommendation records a served recommendation query
func RecordRecommendation(kind, source, reason string, seconds float64) {
	RecommendationsTotal.WithLabelValues(kind, source, reason).Inc()
	RecommendationDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordModelFailure records a model query that failed and was served from fallback
func RecordModelFailure(kind string) {
	RecommendationModelFailures.WithLabelValues(kind).Inc()
}

// SetSnapshotInfo updates the served snapshot gauges
func SetSnapshotInfo(version, users, products int) {
	SnapshotVersion.Set(float64(version))
	SnapshotUsers.Set(float64(users))
	SnapshotProducts.Set(float64(products))
}

// RecordSnapshotSwap records a snapshot hot swap
func RecordSnapshotSwap() {
	SnapshotSwaps.Inc()
}

// RecordSnapshotReloadError records a reload that kept the previous snapshot
func RecordSnapshotReloadError(reason string) {
	SnapshotReloadErrors.WithLabelValues(reason).Inc()
}

// RecordSnapshotIO records a snapshot save or load
func RecordSnapshotIO(operation string, duration time.Duration, err error) {
	SnapshotIODuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		SnapshotIOErrors.WithLabelValues(operation).Inc()
	}
}

// SetCatalogSize updates the catalog size gauge
func SetCatalogSize(n int) {
	CatalogProducts.Set(float64(n))
}

// RecordTraining records an incremental refit
func RecordTraining(duration time.Duration, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues("failure").Inc()
		return
	}
	TrainingRuns.WithLabelValues("success").Inc()
}

// RecordInteractions records the outcome of an ingest batch
func RecordInteractions(applied int, rejected map[string]int) {
	InteractionsApplied.Add(float64(applied))
	for reason, n := range rejected {
		InteractionsRejected.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFeedback records an accepted feedback submission
func RecordFeedback(action string) {
	FeedbackReceived.WithLabelValues(action).Inc()
}

// RecordFeedbackRejected records a rejected feedback submission
func RecordFeedbackRejected(reason string) {
	FeedbackRejected.WithLabelValues(reason).Inc()
}

// SetFeedbackPending updates the pending feedback gauge
func SetFeedbackPending(n int) {
	FeedbackPending.Set(float64(n))
}

// RecordFeedbackForward records a forwarding attempt
func RecordFeedbackForward(success bool) {
	if success {
		FeedbackForwarded.WithLabelValues("success").Inc()
	} else {
		FeedbackForwarded.WithLabelValues("failure").Inc()
	}
}

// RecordFeedbackMaxAttemptsExceeded counts a record given up on
func RecordFeedbackMaxAttemptsExceeded() {
	FeedbackMaxAttemptsExceeded.Inc()
}

// RecordCircuitBreakerState sets the breaker state gauge (0=closed, 1=half-open, 2=open)
func RecordCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest records a request outcome through a breaker
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetAppInfo publishes build information and starts the uptime gauge
func SetAppInfo(version string, started time.Time) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	AppUptime.Set(time.Since(started).Seconds())
}

// UpdateUptime refreshes the uptime gauge
func UpdateUptime(started time.Time) {
	AppUptime.Set(time.Since(started).Seconds())
}
