package processors

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
	"github.com/roach88/bluedoc/internal/expr"
)

// GasExpressionBase is charged per expression evaluation on top of one
// unit per GasCostUnit of CEL runtime cost.
const (
	GasExpressionBase int64  = 5
	GasCostUnit       uint64 = 100
)

// expressionGas converts a CEL cost into gas: the base charge plus the
// cost in GasCostUnit units, rounded up.
func expressionGas(cost uint64) int64 {
	return GasExpressionBase + int64((cost+GasCostUnit-1)/GasCostUnit)
}

// StepContext is what a step sees while a workflow runs.
type StepContext struct {
	Event    *engine.Event
	Contract *blue.Node
	PCtx     *engine.ProcessingContext
	// Results holds the results of earlier named steps.
	Results map[string]any
}

// vars builds the expression variables for the step.
func (sc *StepContext) vars() expr.Vars {
	return expr.Vars{
		expr.VarDocument: blue.ToValue(sc.PCtx.Get("")),
		expr.VarEvent:    blue.ToValue(sc.Event.Payload),
		expr.VarSteps:    sc.Results,
		expr.VarContract: blue.ToValue(sc.Contract),
	}
}

// charge meters an evaluation on the call's gas meter.
func (sc *StepContext) charge(cost uint64) error {
	return sc.PCtx.GasMeter().Consume(expressionGas(cost), "expression in "+sc.PCtx.NodePath())
}

// StepExecutor runs one kind of workflow step.
type StepExecutor interface {
	// StepType is the step's type name.
	StepType() string
	Execute(ctx context.Context, step *blue.Node, sc *StepContext) (any, error)
}

// UpdateDocumentStep applies a changeset of patches relative to the
// workflow's node and announces every change as a Document Update event.
type UpdateDocumentStep struct {
	eval *expr.Evaluator
}

func (UpdateDocumentStep) StepType() string { return contracts.UpdateDocument }

func (s UpdateDocumentStep) Execute(ctx context.Context, step *blue.Node, sc *StepContext) (any, error) {
	changeset := step.Prop("changeset")
	if src, ok := changeset.StringValue(); ok && expr.IsExpression(src) {
		resolved, err := s.eval.ResolveNode(ctx, changeset, sc.vars(), sc.charge)
		if err != nil {
			return nil, fmt.Errorf("changeset: %w", err)
		}
		changeset = resolved
	}
	if changeset == nil {
		return nil, nil
	}
	if changeset.Items == nil {
		return nil, fmt.Errorf("changeset: expected a list")
	}

	for i, change := range changeset.Items {
		if err := s.apply(ctx, change, sc); err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil, nil
}

func (s UpdateDocumentStep) apply(ctx context.Context, change *blue.Node, sc *StepContext) error {
	opStr, _ := change.Prop("op").StringValue()
	rawPath, _ := change.Prop("path").StringValue()
	if rawPath == "" {
		return nil
	}
	resolved, err := s.eval.ResolveString(ctx, rawPath, sc.vars(), sc.charge)
	if err != nil {
		return fmt.Errorf("path: %w", err)
	}
	path := fmt.Sprint(resolved)

	op := blue.PatchOp(opStr)
	switch op {
	case blue.OpAdd, blue.OpReplace:
		val := change.Prop("val")
		if val == nil {
			return nil
		}
		val, err = s.eval.ResolveNode(ctx, val, sc.vars(), sc.charge)
		if err != nil {
			return fmt.Errorf("val: %w", err)
		}
		sc.PCtx.AddPatch(blue.Patch{Op: op, Path: path, Val: val})
		sc.PCtx.EmitEvent(&engine.Event{
			Payload:      contracts.NewDocumentUpdate(op, sc.PCtx.ResolvePath(path), val),
			EmissionType: engine.EmissionUpdate,
		})
	case blue.OpRemove:
		sc.PCtx.AddPatch(blue.Patch{Op: op, Path: path})
		sc.PCtx.EmitEvent(&engine.Event{
			Payload:      contracts.NewDocumentUpdate(op, sc.PCtx.ResolvePath(path), nil),
			EmissionType: engine.EmissionUpdate,
		})
	default:
		return fmt.Errorf("unsupported op %q", opStr)
	}
	return nil
}

// TriggerEventStep emits the step's event, with placeholders resolved.
type TriggerEventStep struct {
	eval *expr.Evaluator
}

func (TriggerEventStep) StepType() string { return contracts.TriggerEvent }

func (s TriggerEventStep) Execute(ctx context.Context, step *blue.Node, sc *StepContext) (any, error) {
	evt := step.Prop("event")
	if evt == nil {
		return nil, fmt.Errorf("trigger event: missing event")
	}
	payload, err := s.eval.ResolveNode(ctx, evt, sc.vars(), sc.charge)
	if err != nil {
		return nil, fmt.Errorf("trigger event: %w", err)
	}
	sc.PCtx.EmitEvent(&engine.Event{Payload: payload})
	return blue.ToValue(payload), nil
}

// ExpressionStep evaluates the step's code. A map result carrying an
// "events" list emits every entry as an event.
type ExpressionStep struct {
	eval *expr.Evaluator
}

func (ExpressionStep) StepType() string { return contracts.Expression }

func (s ExpressionStep) Execute(ctx context.Context, step *blue.Node, sc *StepContext) (any, error) {
	code, _ := step.Prop("code").StringValue()
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("expression: code is required")
	}
	if inner, err := expr.ExtractExpression(code); err == nil {
		code = inner
	}
	res, err := s.eval.Eval(ctx, code, sc.vars())
	if cerr := sc.charge(res.Cost); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}

	if m, ok := res.Value.(map[string]any); ok {
		if events, ok := m["events"].([]any); ok {
			for i, e := range events {
				payload, err := blue.FromValue(e)
				if err != nil {
					return nil, fmt.Errorf("expression: event %d: %w", i, err)
				}
				sc.PCtx.EmitEvent(&engine.Event{Payload: payload})
			}
		}
	}
	return res.Value, nil
}

// DefaultSteps returns the standard step executors.
func DefaultSteps(ev *expr.Evaluator) []StepExecutor {
	return []StepExecutor{
		UpdateDocumentStep{eval: ev},
		TriggerEventStep{eval: ev},
		ExpressionStep{eval: ev},
	}
}
