package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
	"github.com/roach88/bluedoc/internal/expr"
	"github.com/roach88/bluedoc/internal/processors"
)

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sends engine logs to l instead of discarding them.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// traceRecorder turns observer callbacks into trace entries.
type traceRecorder struct {
	events []TraceEvent
}

func (r *traceRecorder) TaskExecuted(t engine.TaskRecord) {
	r.events = append(r.events, TraceEvent{
		Kind: KindTask, Node: t.NodePath, Contract: t.ContractName, ContractType: t.ContractType,
	})
}

func (r *traceRecorder) TaskDropped(t engine.TaskRecord, reason string) {
	r.events = append(r.events, TraceEvent{
		Kind: KindDrop, Node: t.NodePath, Contract: t.ContractName, ContractType: t.ContractType, Reason: reason,
	})
}

func (r *traceRecorder) PatchApplied(t engine.TaskRecord, p blue.Patch) {
	r.events = append(r.events, TraceEvent{
		Kind: KindPatch, Node: t.NodePath, Contract: t.ContractName, PatchOp: string(p.Op), Path: p.Path,
	})
}

func (r *traceRecorder) RunCompleted(rec engine.RunRecord) {
	evt := TraceEvent{Kind: KindRun, RunOp: rec.Op}
	if rec.Err != nil {
		evt.Error = ErrorCode(rec.Err)
	}
	r.events = append(r.events, evt)
}

// Run executes a scenario on a fresh engine. The returned error reports
// harness failures only; engine errors land in Result.Err and are checked
// against the scenario's expectations.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := blue.FromValue(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	events := make([]*blue.Node, len(scenario.Events))
	for i, e := range scenario.Events {
		if events[i], err = blue.FromValue(e); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	token := scenario.RunToken
	if token == "" {
		token = "scenario-" + scenario.Name
	}
	ev, err := expr.New()
	if err != nil {
		return nil, fmt.Errorf("expression evaluator: %w", err)
	}
	recorder := &traceRecorder{}
	eng, err := engine.New(contracts.NewBlue(),
		engine.WithLogger(cfg.logger),
		engine.WithRunTokens(engine.NewFixedGenerator(token)),
		engine.WithTracing(true),
		engine.WithObserver(recorder),
		engine.WithProcessors(processors.Defaults(ev)...),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	var runOpts []engine.RunOption
	if scenario.GasBudget != nil {
		runOpts = append(runOpts, engine.WithGasBudget(*scenario.GasBudget))
	}

	result := NewResult()
	ctx := context.Background()
	execute(ctx, eng, doc, events, runOpts, result)
	result.Trace = recorder.events

	for _, msg := range checkExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute initializes doc and processes events, recording the outcome.
func execute(ctx context.Context, eng *engine.Engine, doc *blue.Node, events []*blue.Node, runOpts []engine.RunOption, result *Result) {
	initRes, err := eng.Initialize(ctx, doc, runOpts...)
	if err != nil {
		result.Err = err
		return
	}
	result.Emitted = append(result.Emitted, initRes.Emitted...)
	result.GasUsed += initRes.GasUsed
	result.State = initRes.State
	if len(events) == 0 {
		return
	}

	processed, err := eng.ProcessEvents(ctx, initRes.State, events, runOpts...)
	if err != nil {
		result.Err = err
		result.State = nil
		return
	}
	result.Emitted = append(result.Emitted, processed.Emitted...)
	result.GasUsed += processed.GasUsed
	result.State = processed.State
}

// ErrorCode names an engine error for expectations and traces.
func ErrorCode(err error) string {
	var re *engine.RuntimeError
	var ge *engine.GasBudgetExceededError
	var ie *engine.EmbeddedDocumentModificationError
	var pe *engine.PatchApplicationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &re):
		return string(re.Code)
	case errors.As(err, &ge):
		return "GAS_BUDGET_EXCEEDED"
	case errors.As(err, &ie):
		return "EMBEDDED_DOCUMENT_MODIFICATION"
	case errors.As(err, &pe):
		return "PATCH_APPLICATION"
	default:
		return "ERROR"
	}
}
