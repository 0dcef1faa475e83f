// Package metrics exposes engine activity as Prometheus metrics.
//
// A Collector implements engine.Observer; pass it with engine.WithObserver.
// Metrics register on the Registerer given to NewCollector, so tests and
// embedding services can keep separate registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/engine"
)

// Collector counts tasks, patches and runs.
type Collector struct {
	TasksExecuted   *prometheus.CounterVec
	TasksDropped    *prometheus.CounterVec
	PatchesApplied  *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	EventsProcessed prometheus.Counter
	RunGas          *prometheus.HistogramVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates the metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		TasksExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blue_tasks_executed_total",
			Help: "Handler tasks executed, labelled by contract type.",
		}, []string{"contract_type"}),

		TasksDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blue_tasks_dropped_total",
			Help: "Queued tasks skipped because their node or contract disappeared.",
		}, []string{"reason"}),

		PatchesApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blue_patches_applied_total",
			Help: "Document patches applied by handlers, labelled by op.",
		}, []string{"op"}),

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blue_runs_total",
			Help: "Initialize and ProcessEvents calls, labelled by op and outcome.",
		}, []string{"op", "outcome"}),

		EventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "blue_events_processed_total",
			Help: "Events handled by successful calls, counting the lifecycle event of Initialize.",
		}),

		RunGas: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blue_run_gas_used",
			Help:    "Gas consumed per call.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"op"}),
	}
}

func (c *Collector) TaskExecuted(t engine.TaskRecord) {
	c.TasksExecuted.WithLabelValues(t.ContractType).Inc()
}

func (c *Collector) TaskDropped(_ engine.TaskRecord, reason string) {
	c.TasksDropped.WithLabelValues(reason).Inc()
}

func (c *Collector) PatchApplied(_ engine.TaskRecord, p blue.Patch) {
	c.PatchesApplied.WithLabelValues(string(p.Op)).Inc()
}

func (c *Collector) RunCompleted(r engine.RunRecord) {
	c.Runs.WithLabelValues(r.Op, Outcome(r.Err)).Inc()
	c.RunGas.WithLabelValues(r.Op).Observe(float64(r.GasUsed))
	if r.Err == nil {
		c.EventsProcessed.Add(float64(r.Events))
	}
}

// Outcome classifies a run error into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case engine.IsGasError(err):
		return "gas_exceeded"
	case engine.IsLoopError(err):
		return "loop"
	case engine.IsCycleOverflowError(err):
		return "cycle_overflow"
	case engine.IsIsolationError(err):
		return "isolation"
	case engine.IsPatchError(err):
		return "patch"
	case engine.IsNotInitializedError(err):
		return "not_initialized"
	default:
		return "error"
	}
}
