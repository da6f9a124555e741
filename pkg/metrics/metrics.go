// Package metrics provides Prometheus-based observability for the
// columnar engine's kernels and conformance harness. It follows the
// teacher's Collector-wraps-CounterVec/GaugeVec idiom, trimmed to the
// counters this spec's components actually emit (dense-vs-generic
// groupby routing, policy decisions, conformal coverage, harness gate
// outcomes) instead of a generic connector-pipeline metric set.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GroupByPathTotal counts groupby executions by routing decision
	// (dense int fast path vs. the generic hash-map path) and allocator
	// choice (arena vs. heap).
	GroupByPathTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frankenpandas_groupby_path_total",
			Help: "Total groupby executions by path and allocator",
		},
		[]string{"path", "allocator"},
	)

	// JoinRowsEmitted counts output rows emitted by join type.
	JoinRowsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frankenpandas_join_rows_emitted_total",
			Help: "Total rows emitted by join type",
		},
		[]string{"join_type"},
	)

	// PolicyDecisionsTotal counts RuntimePolicy decisions by mode and action.
	PolicyDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frankenpandas_policy_decisions_total",
			Help: "Total RuntimePolicy decisions by mode and action",
		},
		[]string{"mode", "action"},
	)

	// ConformalCoverageAlertsTotal counts conformal guard coverage alerts.
	ConformalCoverageAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frankenpandas_conformal_coverage_alerts_total",
			Help: "Total conformal guard coverage alerts raised",
		},
	)

	// ConformalEmpiricalCoverage tracks the rolling empirical coverage.
	ConformalEmpiricalCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "frankenpandas_conformal_empirical_coverage",
			Help: "Current empirical coverage of the conformal guard",
		},
	)

	// HarnessPacketsTotal counts packet runs by gate outcome.
	HarnessPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frankenpandas_harness_packets_total",
			Help: "Total conformance packets run, by gate pass/fail",
		},
		[]string{"gate_pass"},
	)

	// HarnessFixturesTotal counts individual fixture outcomes.
	HarnessFixturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frankenpandas_harness_fixtures_total",
			Help: "Total fixtures evaluated, by mode and pass/fail",
		},
		[]string{"mode", "passed"},
	)

	// HarnessPacketDuration tracks packet execution latency.
	HarnessPacketDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frankenpandas_harness_packet_duration_seconds",
			Help:    "Packet execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"packet_id"},
	)
)

// Timer is a minimal start/stop duration helper, following the
// teacher's metrics.Timer idiom.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
