package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/bluedoc/internal/blue"
)

// MaxInlineDepth bounds how deeply adapters may re-emit events inline.
const MaxInlineDepth = 64

// router walks a document snapshot, matches contracts against an event,
// runs adapters inline and queues handlers.
type router struct {
	lang     Language
	registry *Registry
	queue    *taskQueue
	taskIDs  *Clock
	eventSeq *Clock
	tracer   tracer
	logger   *slog.Logger
}

// route delivers evt to the node at segments and everything below it.
//
// With no segments the start node is derived from the event: an explicit
// dispatch path wins, then the origin of a channel event, then the root.
func (r *router) route(ctx context.Context, doc *blue.Node, segments []string, evt *Event, afterTaskID int64, inlineDepth int, gas *GasMeter) error {
	if evt.Seq == 0 {
		evt.Seq = r.eventSeq.Next()
	}
	if len(segments) == 0 {
		if evt.DispatchPath != "" {
			redirected := evt.Clone()
			redirected.DispatchPath = ""
			return r.route(ctx, doc, blue.SplitPath(evt.DispatchPath), redirected, afterTaskID, inlineDepth, gas)
		}
		if evt.Source == SourceChannel {
			segments = blue.SplitPath(evt.OriginNodePath)
		}
	}
	return r.visit(ctx, doc, segments, evt, afterTaskID, inlineDepth, gas)
}

func (r *router) visit(ctx context.Context, doc *blue.Node, segments []string, evt *Event, afterTaskID int64, inlineDepth int, gas *GasMeter) error {
	nodePath := blue.JoinPath(segments)
	node := doc.Get(nodePath)
	if node == nil {
		return nil
	}
	if err := gas.Consume(GasRouteNode, "route "+nodePath); err != nil {
		return err
	}

	// A channel event is only visible at the node its channel lives on.
	scoped := evt.Source == SourceChannel && evt.OriginNodePath != "" &&
		blue.JoinPath(blue.SplitPath(evt.OriginNodePath)) != nodePath
	if !scoped {
		if err := r.matchContracts(ctx, doc, node, segments, evt, afterTaskID, inlineDepth, gas); err != nil {
			return err
		}
	}

	for _, key := range node.PropertyNames() {
		if key == blue.ContractsKey {
			continue
		}
		child := append(slices.Clip(segments), key)
		if err := r.visit(ctx, doc, child, evt, afterTaskID, inlineDepth, gas); err != nil {
			return err
		}
	}
	return nil
}

func (r *router) matchContracts(ctx context.Context, doc, node *blue.Node, segments []string, evt *Event, afterTaskID int64, inlineDepth int, gas *GasMeter) error {
	nodePath := blue.JoinPath(segments)
	contracts := node.Contracts()
	for _, name := range node.ContractNames() {
		contract := contracts[name]
		if contract == nil || contract.Type == nil {
			continue
		}
		typeID := r.lang.TypeBlueID(contract.Type)
		proc := r.registry.Get(typeID)
		if proc == nil {
			r.logger.Warn("no processor for contract type, skipping",
				"node", nodePath, "contract", name, "type", contract.TypeName(), "type_id", typeID)
			continue
		}

		task := &Task{NodePath: nodePath, ContractName: name, Contract: contract, Event: evt}
		pctx := newProcessingContext(doc, task, r.lang, gas)
		if !proc.Supports(evt, contract, pctx, name) {
			continue
		}
		if err := gas.Consume(GasContractMatch, "match "+hopID(nodePath, name)); err != nil {
			return err
		}

		switch proc.Role() {
		case RoleAdapter:
			if err := r.runAdapter(ctx, doc, proc, pctx, task, afterTaskID, inlineDepth, gas); err != nil {
				return err
			}
		case RoleHandler:
			if err := r.schedule(task, len(segments), typeID, afterTaskID); err != nil {
				return err
			}
		}
	}
	return nil
}

// runAdapter executes an adapter immediately and routes what it emits
// from the root of the same snapshot.
func (r *router) runAdapter(ctx context.Context, doc *blue.Node, proc Processor, pctx *ProcessingContext, task *Task, afterTaskID int64, inlineDepth int, gas *GasMeter) error {
	if inlineDepth >= MaxInlineDepth {
		return newInlineDepthError(task.NodePath, task.ContractName, inlineDepth)
	}
	if err := gas.Consume(GasProcessorInvocation, "adapter "+hopID(task.NodePath, task.ContractName)); err != nil {
		return err
	}
	if err := proc.Handle(ctx, task.Event, task.Contract, pctx, task.ContractName); err != nil {
		return fmt.Errorf("adapter %s: %w", hopID(task.NodePath, task.ContractName), err)
	}
	for _, act := range pctx.Flush() {
		if act.Kind == ActionPatch {
			return newAdapterPatchError(task.NodePath, task.ContractName, act.Patch)
		}
		if err := gas.Consume(GasEmitEvent, "emit from "+hopID(task.NodePath, task.ContractName)); err != nil {
			return err
		}
		if err := r.route(ctx, doc, nil, act.Event, afterTaskID, inlineDepth+1, gas); err != nil {
			return err
		}
	}
	return nil
}

// schedule queues a handler task after checking the event's trace.
func (r *router) schedule(task *Task, depth int, typeID blue.BlueID, afterTaskID int64) error {
	hop := hopID(task.NodePath, task.ContractName)
	if r.tracer.wouldLoop(task.Event, hop) {
		return newLoopError(task.NodePath, task.ContractName, hop)
	}

	var order float64
	if v, ok := task.Contract.Prop("order").NumberValue(); ok {
		order = v
	}
	task.Event = r.tracer.withHop(task.Event, hop)
	task.Key = TaskKey{
		Depth:        depth,
		Seq:          task.Event.Seq,
		TypePriority: r.registry.OrderOf(typeID),
		Order:        order,
		ContractName: task.ContractName,
		ID:           r.taskIDs.Next() + afterTaskID,
	}
	r.queue.push(task)
	r.logger.Debug("task scheduled",
		"task", task.Key.ID, "seq", task.Key.Seq, "node", task.NodePath, "contract", task.ContractName)
	return nil
}
