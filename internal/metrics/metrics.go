// Package metrics exposes Prometheus instrumentation for the executor and
// checkpoint store. Grounded on graph/metrics.go's PrometheusMetrics,
// re-namespaced to "workflow_engine" and re-labeled for this engine's
// single-goroutine-per-run model: the teacher's intra-run concurrency
// gauges (inflight_nodes, queue_depth, merge_conflicts_total,
// backpressure_events_total) have no caller here (SPEC_FULL.md §5 rules
// out intra-run fan-out) and are replaced with run-lifecycle and
// checkpoint-store metrics. The executor records step latency, checkpoint
// writes and suspensions; active_runs, suspended_runs and retries_total
// are registered but nothing in this repository updates them.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects all Prometheus instrumentation for a process. All
// metrics are namespaced "workflow_engine_".
type Metrics struct {
	activeRuns    prometheus.Gauge
	suspendedRuns prometheus.Gauge

	stepLatency *prometheus.HistogramVec
	retries     *prometheus.CounterVec

	checkpointWrites *prometheus.CounterVec
	suspensions      *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// New registers all metrics with registry. Pass nil to use
// prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &Metrics{enabled: true}

	m.activeRuns = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "workflow_engine",
		Name:      "active_runs",
		Help:      "Number of runs currently executing.",
	})
	m.suspendedRuns = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "workflow_engine",
		Name:      "suspended_runs",
		Help:      "Number of runs currently suspended awaiting resume.",
	})
	m.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workflow_engine",
		Name:      "step_latency_ms",
		Help:      "Node execution duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"graph_name", "node_id", "status"})
	m.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "retries_total",
		Help:      "Cumulative retry attempts across all nodes and step-kit operations.",
	}, []string{"graph_name", "node_id"})
	m.checkpointWrites = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "checkpoint_writes_total",
		Help:      "Checkpoint writes, labeled by outcome.",
	}, []string{"outcome"}) // outcome: ok, failed
	m.suspensions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workflow_engine",
		Name:      "suspensions_total",
		Help:      "Runs suspended, labeled by graph name.",
	}, []string{"graph_name"})

	return m
}

func (m *Metrics) RecordStepLatency(graphName, nodeID string, d time.Duration, status string) {
	if !m.enabled {
		return
	}
	m.stepLatency.WithLabelValues(graphName, nodeID, status).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) IncrementRetries(graphName, nodeID string) {
	if !m.enabled {
		return
	}
	m.retries.WithLabelValues(graphName, nodeID).Inc()
}

func (m *Metrics) SetActiveRuns(n int) {
	if !m.enabled {
		return
	}
	m.activeRuns.Set(float64(n))
}

func (m *Metrics) SetSuspendedRuns(n int) {
	if !m.enabled {
		return
	}
	m.suspendedRuns.Set(float64(n))
}

func (m *Metrics) RecordCheckpointWrite(ok bool) {
	if !m.enabled {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.checkpointWrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSuspension(graphName string) {
	if !m.enabled {
		return
	}
	m.suspensions.WithLabelValues(graphName).Inc()
}

// Disable and Enable toggle recording, useful in tests that share a
// registry across cases.
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
