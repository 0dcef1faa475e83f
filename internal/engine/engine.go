package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
)

// Engine processes events against Blue documents.
//
// The engine is single-writer: one call owns the queue, the counters and
// the checkpoint cache from start to finish. Callers serialize calls.
//
// INVARIANTS:
//   - the document a call returns is the last successfully patched one
//   - processors only see frozen snapshots and mutate through actions
//   - an error aborts the call; no partial result is returned
type Engine struct {
	lang     Language
	registry *Registry
	queue    *taskQueue
	taskIDs  *Clock
	eventSeq *Clock
	tracing  bool
	maxSteps int
	logger   *slog.Logger
	observer Observer
	tokens   RunTokenGenerator
	pending  []Processor

	checkpoints *checkpointCache
	regions     regionCache
	router      *router
}

// Result is what Initialize and ProcessEvents return.
type Result struct {
	State        *blue.Node
	Emitted      []*blue.Node
	GasUsed      int64
	GasRemaining int64
}

// New creates an Engine over lang. The built-in processors (Process
// Embedded, Initialized Marker, checkpointing) are registered first, then
// the processors passed with WithProcessors, in order.
func New(lang Language, opts ...Option) (*Engine, error) {
	e := &Engine{
		lang:        lang,
		registry:    NewRegistry(),
		queue:       newTaskQueue(),
		taskIDs:     NewClock(),
		eventSeq:    NewClock(),
		tracing:     tracingFromEnv(),
		maxSteps:    DefaultMaxDrainSteps,
		logger:      slog.Default(),
		observer:    NopObserver{},
		tokens:      UUIDv7Generator{},
		checkpoints: newCheckpointCache(),
	}
	for _, opt := range opts {
		opt(e)
	}

	builtins := []Processor{
		processEmbedded{schema: contracts.ProcessEmbeddedSchema},
		initializedMarker{},
	}
	for _, p := range builtins {
		if err := e.registry.Register(p); err != nil {
			return nil, err
		}
	}
	if err := e.registry.RegisterOrdered(checkpointProcessor{cache: e.checkpoints}, CheckpointPriority); err != nil {
		return nil, err
	}
	for _, p := range e.pending {
		if err := e.registry.Register(p); err != nil {
			return nil, err
		}
	}
	e.pending = nil

	e.router = &router{
		lang:     e.lang,
		registry: e.registry,
		queue:    e.queue,
		taskIDs:  e.taskIDs,
		eventSeq: e.eventSeq,
		tracer:   tracer{enabled: e.tracing},
		logger:   e.logger,
	}
	return e, nil
}

// Register adds a processor with its registration index as priority.
func (e *Engine) Register(p Processor) error {
	return e.registry.Register(p)
}

// RegisterOrdered adds a processor with an explicit priority.
func (e *Engine) RegisterOrdered(p Processor, priority int) error {
	return e.registry.RegisterOrdered(p, priority)
}

// Registry exposes the processor registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// run carries the state of one Initialize or ProcessEvents call.
type run struct {
	doc     *blue.Node
	gas     *GasMeter
	emitted []*blue.Node
	tasks   int
	logger  *slog.Logger
}

func (e *Engine) newRun(op string, doc *blue.Node, opts []RunOption) *run {
	e.queue.reset()
	e.checkpoints.clear()
	return &run{
		doc:    doc,
		gas:    newGasMeterFor(opts),
		logger: e.logger.With("run", e.tokens.Generate(), "op", op),
	}
}

func (e *Engine) finish(op string, r *run, events int, err error) (*Result, error) {
	e.observer.RunCompleted(RunRecord{
		Op:      op,
		Events:  events,
		Tasks:   r.tasks,
		GasUsed: r.gas.Consumed(),
		Err:     err,
	})
	if err != nil {
		r.logger.Error("run aborted", "error", err, "gas_used", r.gas.Consumed(), "tasks", r.tasks)
		return nil, err
	}
	r.logger.Info("run completed",
		"gas_used", r.gas.Consumed(), "tasks", r.tasks, "emitted", len(r.emitted))
	return &Result{
		State:        r.doc,
		Emitted:      r.emitted,
		GasUsed:      r.gas.Consumed(),
		GasRemaining: r.gas.Remaining(),
	}, nil
}

// Initialize prepares doc for processing: it adds missing checkpoint
// contracts, routes a Document Processing Initiated lifecycle event,
// drains the resulting work and finally marks the document initialized.
//
// Initializing an already initialized document runs the lifecycle event
// again but leaves the marker as is.
func (e *Engine) Initialize(ctx context.Context, doc *blue.Node, opts ...RunOption) (*Result, error) {
	const op = "initialize"
	r := e.newRun(op, doc, opts)
	r.logger.Info("run starting")
	err := e.initialize(ctx, r)
	return e.finish(op, r, 1, err)
}

func (e *Engine) initialize(ctx context.Context, r *run) error {
	if r.doc == nil {
		return errors.New("initialize: nil document")
	}
	doc, err := ensureCheckpoints(r.doc, e.lang)
	if err != nil {
		return err
	}
	r.doc = doc

	evt := &Event{
		Payload:      contracts.NewProcessingInitiated(),
		Source:       SourceInternal,
		EmissionType: EmissionLifecycle,
	}
	r.emitted = append(r.emitted, evt.Payload)
	if err := e.router.route(ctx, r.doc, nil, evt, 0, 0, r.gas); err != nil {
		return err
	}
	if err := e.drainQueue(ctx, r); err != nil {
		return err
	}
	if err := e.flushCheckpoints(r); err != nil {
		return err
	}

	doc, err = ensureInitialized(r.doc, e.lang)
	if err != nil {
		return err
	}
	r.doc = doc
	return nil
}

// ProcessEvents feeds external event payloads to an initialized document
// one at a time. Each event is routed and drained to quiescence, and its
// checkpoint writes are applied, before the next one starts.
func (e *Engine) ProcessEvents(ctx context.Context, doc *blue.Node, events []*blue.Node, opts ...RunOption) (*Result, error) {
	const op = "process_events"
	r := e.newRun(op, doc, opts)
	r.logger.Info("run starting", "events", len(events))
	err := e.processEvents(ctx, r, events)
	return e.finish(op, r, len(events), err)
}

func (e *Engine) processEvents(ctx context.Context, r *run, events []*blue.Node) error {
	if r.doc == nil || !isInitialized(r.doc, e.lang) {
		return newNotInitializedError()
	}
	doc, err := ensureCheckpoints(r.doc, e.lang)
	if err != nil {
		return err
	}
	r.doc = doc
	for i, payload := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Debug("external event", "index", i, "type", payload.TypeName())
		evt := &Event{Payload: payload, Source: SourceExternal}
		if err := e.router.route(ctx, r.doc, nil, evt, 0, 0, r.gas); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if err := e.drainQueue(ctx, r); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if err := e.flushCheckpoints(r); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// flushCheckpoints applies the checkpoint writes recorded for the current
// external event. The cache is cleared whether or not they apply.
func (e *Engine) flushCheckpoints(r *run) error {
	defer e.checkpoints.clear()
	if e.checkpoints.len() == 0 {
		return nil
	}
	for _, p := range e.checkpoints.patches(r.doc) {
		next, err := e.lang.ApplyPatch(r.doc, p)
		if err != nil {
			return &PatchApplicationError{Patch: p, Cause: err}
		}
		r.doc = next
		r.logger.Debug("checkpoint written", "path", p.Path)
	}
	return nil
}

// drainQueue runs queued tasks until the queue is empty.
func (e *Engine) drainQueue(ctx context.Context, r *run) error {
	steps := 0
	for e.queue.len() > 0 {
		steps++
		if steps > e.maxSteps {
			return newCycleOverflowError(steps, e.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		task := e.queue.pop()
		if err := e.runTask(ctx, r, task); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runTask(ctx context.Context, r *run, task *Task) error {
	rec := recordOf(task)
	node := r.doc.Get(task.NodePath)
	if node == nil {
		e.drop(r, task, rec, "node removed")
		return nil
	}
	if node.Contracts()[task.ContractName] == nil {
		e.drop(r, task, rec, "contract removed")
		return nil
	}

	// The contract runs as it was when the task was queued.
	contract := task.Contract
	proc := e.registry.Get(e.lang.TypeBlueID(contract.Type))
	if proc == nil {
		r.logger.Warn("no processor for queued contract, skipping",
			"node", task.NodePath, "contract", task.ContractName, "type", contract.TypeName())
		return nil
	}

	if err := r.gas.Consume(GasProcessorInvocation, "handle "+hopID(task.NodePath, task.ContractName)); err != nil {
		return err
	}
	pctx := newProcessingContext(r.doc, task, e.lang, r.gas)
	if err := proc.Handle(ctx, task.Event, contract, pctx, task.ContractName); err != nil {
		return fmt.Errorf("handler %s: %w", hopID(task.NodePath, task.ContractName), err)
	}
	r.tasks++
	e.observer.TaskExecuted(rec)
	r.logger.Debug("task executed",
		"task", task.Key.ID, "seq", task.Key.Seq, "node", task.NodePath, "contract", task.ContractName)

	for _, act := range pctx.Flush() {
		switch act.Kind {
		case ActionPatch:
			if err := e.applyPatch(r, task, rec, act.Patch); err != nil {
				return err
			}
		case ActionEvent:
			r.emitted = append(r.emitted, act.Event.Payload)
			if err := r.gas.Consume(GasEmitEvent, "emit from "+hopID(task.NodePath, task.ContractName)); err != nil {
				return err
			}
			if err := e.router.route(ctx, r.doc, nil, act.Event, task.Key.ID, 0, r.gas); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) applyPatch(r *run, task *Task, rec TaskRecord, p blue.Patch) error {
	if err := checkIsolation(p, task.NodePath, e.regions.get(r.doc, e.lang)); err != nil {
		return err
	}
	if err := r.gas.Consume(GasPatch, "patch "+p.Path); err != nil {
		return err
	}
	next, err := e.lang.ApplyPatch(r.doc, p)
	if err != nil {
		return &PatchApplicationError{Patch: p, Cause: err}
	}
	r.doc = next
	e.observer.PatchApplied(rec, p)
	r.logger.Debug("patch applied", "op", p.Op, "path", p.Path, "writer", task.NodePath)
	return nil
}

func (e *Engine) drop(r *run, task *Task, rec TaskRecord, reason string) {
	e.observer.TaskDropped(rec, reason)
	r.logger.Debug("task dropped",
		"task", task.Key.ID, "node", task.NodePath, "contract", task.ContractName, "reason", reason)
}
