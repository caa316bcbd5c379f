// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package metrics provides Prometheus instrumentation for the sync daemon:
// cycle duration and outcome, upload/download record counts, backlog size,
// circuit breaker state, and connection health for both LOCAL and REMOTE.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CycleDuration tracks how long a full sync cycle (upload + meter
	// download + tenant download) takes.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_cycle_duration_seconds",
			Help:    "Duration of a full sync cycle in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// CycleTotal counts cycles by outcome: "success", "failed", "skipped".
	CycleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycle_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"result"},
	)

	// RecordsUploadedTotal counts readings inserted into REMOTE.
	RecordsUploadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_records_uploaded_total",
			Help: "Total number of readings inserted into REMOTE",
		},
	)

	// RecordsDeletedTotal counts readings deleted from LOCAL after upload.
	RecordsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_records_deleted_total",
			Help: "Total number of readings deleted from LOCAL after a successful upload",
		},
	)

	// BacklogSize reports the current count of unsynchronized readings on LOCAL.
	BacklogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_backlog_size",
			Help: "Current number of LOCAL readings with is_synchronized=false",
		},
	)

	// MetersNewTotal / MetersUpdatedTotal count download-side meter reconciliation outcomes.
	MetersNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_meters_new_total",
			Help: "Total number of meters inserted into LOCAL during reconciliation",
		},
	)
	MetersUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_meters_updated_total",
			Help: "Total number of meters updated in LOCAL during reconciliation",
		},
	)

	// TenantsNewTotal / TenantsUpdatedTotal count download-side tenant reconciliation outcomes.
	TenantsNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_tenants_new_total",
			Help: "Total number of tenants inserted into LOCAL during reconciliation",
		},
	)
	TenantsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_tenants_updated_total",
			Help: "Total number of tenants updated in LOCAL during reconciliation",
		},
	)

	// CircuitBreakerState: 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// ConnectionHealthy reports LOCAL/REMOTE reachability: 1=healthy, 0=unhealthy.
	ConnectionHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_connection_healthy",
			Help: "Whether the named database side is currently reachable (1=healthy, 0=unhealthy)",
		},
		[]string{"side"},
	)

	// RetryAttemptsTotal counts retry attempts by error taxonomy kind.
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_retry_attempts_total",
			Help: "Total number of retry attempts by error kind",
		},
		[]string{"kind"},
	)
)

// RecordCycle records the outcome and duration of one sync cycle.
func RecordCycle(duration time.Duration, success bool) {
	CycleDuration.Observe(duration.Seconds())
	result := "failed"
	if success {
		result = "success"
	}
	CycleTotal.WithLabelValues(result).Inc()
}

// RecordCycleSkipped records a tick that was skipped because a cycle was
// already in progress (mutual exclusion).
func RecordCycleSkipped() {
	CycleTotal.WithLabelValues("skipped").Inc()
}
