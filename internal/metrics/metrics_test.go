package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
	"github.com/roach88/bluedoc/internal/expr"
	"github.com/roach88/bluedoc/internal/processors"
)

const counterDoc = `
counter: 0
contracts:
  timeline:
    type: Timeline Channel
    timelineId: alice
  increment:
    type: Sequential Workflow
    channel: timeline
    steps:
      - type: Update Document
        changeset:
          - op: replace
            path: /counter
            val: "${document.counter + 1}"
`

func newEngine(t *testing.T, c *Collector) *engine.Engine {
	t.Helper()
	ev, err := expr.New()
	require.NoError(t, err)
	e, err := engine.New(contracts.NewBlue(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunTokens(engine.NewFixedGenerator("metrics-test")),
		engine.WithObserver(c),
		engine.WithProcessors(processors.Defaults(ev)...),
	)
	require.NoError(t, err)
	return e
}

func TestCollectorCountsEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	e := newEngine(t, c)

	doc, err := blue.ParseYAML([]byte(counterDoc))
	require.NoError(t, err)
	res, err := e.Initialize(context.Background(), doc)
	require.NoError(t, err)

	_, err = e.ProcessEvents(context.Background(), res.State, []*blue.Node{
		contracts.NewTimelineEntry("alice", nil),
		contracts.NewTimelineEntry("alice", nil),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("initialize", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("process_events", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.EventsProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TasksExecuted.WithLabelValues(contracts.SequentialWorkflow)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TasksExecuted.WithLabelValues(contracts.ChannelEventCheckpoint)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.PatchesApplied.WithLabelValues(string(blue.OpReplace))))
	assert.Equal(t, 2, testutil.CollectAndCount(c.RunGas))
}

func TestCollectorCountsFailedRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	e := newEngine(t, c)

	doc, err := blue.ParseYAML([]byte(counterDoc))
	require.NoError(t, err)

	_, err = e.ProcessEvents(context.Background(), doc, []*blue.Node{contracts.NewTimelineEntry("alice", nil)})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("process_events", "not_initialized")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.EventsProcessed))
}

func TestCollectorCountsDrops(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.TaskDropped(engine.TaskRecord{NodePath: "/a", ContractName: "x"}, "node removed")
	c.TaskDropped(engine.TaskRecord{NodePath: "/b", ContractName: "y"}, "node removed")
	c.TaskDropped(engine.TaskRecord{NodePath: "/", ContractName: "z"}, "contract removed")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.TasksDropped.WithLabelValues("node removed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TasksDropped.WithLabelValues("contract removed")))
}

func TestCollectorsUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})

	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&engine.GasBudgetExceededError{Budget: 1, Consumed: 2, ExceededBy: 1}, "gas_exceeded"},
		{fmt.Errorf("event 0: %w", &engine.RuntimeError{Code: engine.ErrCodeLoopDetected}), "loop"},
		{&engine.RuntimeError{Code: engine.ErrCodeCycleOverflow}, "cycle_overflow"},
		{&engine.EmbeddedDocumentModificationError{}, "isolation"},
		{&engine.PatchApplicationError{Cause: blue.ErrPathNotFound}, "patch"},
		{&engine.RuntimeError{Code: engine.ErrCodeNotInitialized}, "not_initialized"},
		{errors.New("handler failed"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}
