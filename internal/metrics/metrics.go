// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package metrics holds the Prometheus collectors for Orderdesk. All
// collectors are registered on the default registry via promauto and exposed
// at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
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
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Audit Metrics
	AuditRecordsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_written_total",
			Help: "Audit records appended to the store",
		},
	)

	AuditRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_dropped_total",
			Help: "Audit records lost before reaching the store",
		},
		[]string{"reason"}, // buffer_full, store_error, closed
	)

	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Audit records waiting in the writer buffer",
		},
	)

	// Report Metrics
	ReportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_total",
			Help: "Report generation jobs by outcome",
		},
		[]string{"type", "outcome"}, // completed, failed, skipped
	)

	ReportJobsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_jobs_published_total",
			Help: "Report generation jobs published to the queue",
		},
	)

	ReportGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Wall time of report generation",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type", "format"},
	)

	ReportDownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_downloads_total",
			Help: "Recorded report downloads",
		},
	)

	// Sweep Metrics
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Availability sweep runs by result",
		},
		[]string{"result"}, // completed, skipped, failed
	)

	SweepRecordsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_records_scanned_total",
			Help: "Products examined by the availability sweep",
		},
	)

	SweepFlagChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_flag_changes_total",
			Help: "Availability flag changes written by the sweep",
		},
	)

	SweepRecordErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_record_errors_total",
			Help: "Per-product failures during a sweep",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Wall time of a sweep run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	SweepLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sweep_last_run_timestamp_seconds",
			Help: "Unix time of the last completed sweep",
		},
	)

	// Identity Directory Metrics
	IdentityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_lookups_total",
			Help: "Actor profile lookups by result",
		},
		[]string{"result"}, // cache_hit, fetched, error, rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Authorization Metrics
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by result",
		},
		[]string{"object", "result"},
	)
)

// RecordDBQuery observes one DuckDB query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuditDropped counts an audit record lost for reason.
func RecordAuditDropped(reason string) {
	AuditRecordsDropped.WithLabelValues(reason).Inc()
}

// RecordReportJob records the outcome of one generation job.
func RecordReportJob(reportType, format, outcome string, duration time.Duration) {
	ReportJobsTotal.WithLabelValues(reportType, outcome).Inc()
	if outcome != "skipped" {
		ReportGenerationDuration.WithLabelValues(reportType, format).Observe(duration.Seconds())
	}
}

// RecordSweepRun records a finished sweep run.
func RecordSweepRun(result string, scanned, changed, failed int, duration time.Duration) {
	SweepRunsTotal.WithLabelValues(result).Inc()
	if result == "skipped" {
		return
	}
	SweepRecordsScanned.Add(float64(scanned))
	SweepFlagChanges.Add(float64(changed))
	SweepRecordErrors.Add(float64(failed))
	SweepDuration.Observe(duration.Seconds())
	if result == "completed" {
		SweepLastRunTimestamp.SetToCurrentTime()
	}
}

// RecordIdentityLookup counts n lookups with result.
func RecordIdentityLookup(result string, n int) {
	IdentityLookupsTotal.WithLabelValues(result).Add(float64(n))
}

// SetCircuitBreakerState publishes a breaker state (0 closed, 1 half-open, 2 open).
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordAuthzDecision counts one authorization decision.
func RecordAuthzDecision(object string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisionsTotal.WithLabelValues(object, result).Inc()
}
