package processors

import (
	"context"
	"fmt"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
)

// stepRunner runs workflow steps in order. Each step's result is stored
// under the step's name for later steps to read through "steps".
type stepRunner struct {
	steps []StepExecutor
}

func (r stepRunner) run(ctx context.Context, evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext) error {
	stepsNode := contract.Prop("steps")
	if stepsNode == nil {
		return nil
	}
	sc := &StepContext{Event: evt, Contract: contract, PCtx: pctx, Results: map[string]any{}}
	lang := pctx.Language()

	for i, step := range stepsNode.Items {
		exec := r.executorFor(step, lang)
		if exec == nil {
			return fmt.Errorf("step %d: unsupported step type %q", i, step.TypeName())
		}
		result, err := exec.Execute(ctx, step, sc)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, exec.StepType(), err)
		}
		if step.Name != "" {
			sc.Results[step.Name] = result
		}
	}
	return nil
}

func (r stepRunner) executorFor(step *blue.Node, lang engine.Language) StepExecutor {
	for _, exec := range r.steps {
		if lang.IsTypeOf(step, contracts.ID(exec.StepType())) {
			return exec
		}
	}
	return nil
}

// SequentialWorkflow runs its steps for every event of one channel,
// optionally only for events containing the contract's event pattern.
type SequentialWorkflow struct {
	schema contracts.Decoder
	runner stepRunner
}

// NewSequentialWorkflow returns the Sequential Workflow processor.
func NewSequentialWorkflow(steps ...StepExecutor) *SequentialWorkflow {
	return &SequentialWorkflow{schema: contracts.SequentialWorkflowSchema, runner: stepRunner{steps: steps}}
}

func (*SequentialWorkflow) ContractType() string { return contracts.SequentialWorkflow }
func (*SequentialWorkflow) ContractBlueID() blue.BlueID {
	return contracts.ID(contracts.SequentialWorkflow)
}
func (*SequentialWorkflow) Role() engine.Role { return engine.RoleHandler }

func (w *SequentialWorkflow) Supports(evt *engine.Event, contract *blue.Node, _ *engine.ProcessingContext, _ string) bool {
	if evt.Source != engine.SourceChannel {
		return false
	}
	var spec contracts.WorkflowSpec
	if err := w.schema.Decode(contract, &spec); err != nil || spec.Channel != evt.ChannelName {
		return false
	}
	pattern := contract.Prop("event")
	return pattern == nil || nodeContains(evt.Payload, pattern)
}

func (w *SequentialWorkflow) Handle(ctx context.Context, evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) error {
	return w.runner.run(ctx, evt, contract, pctx)
}

// SequentialWorkflowOperation runs its steps for every request of one
// operation, as forwarded by the Operation adapter.
type SequentialWorkflowOperation struct {
	schema contracts.Decoder
	runner stepRunner
}

// NewSequentialWorkflowOperation returns the Sequential Workflow Operation
// processor.
func NewSequentialWorkflowOperation(steps ...StepExecutor) *SequentialWorkflowOperation {
	return &SequentialWorkflowOperation{schema: contracts.SequentialWorkflowOperationSchema, runner: stepRunner{steps: steps}}
}

func (*SequentialWorkflowOperation) ContractType() string {
	return contracts.SequentialWorkflowOperation
}
func (*SequentialWorkflowOperation) ContractBlueID() blue.BlueID {
	return contracts.ID(contracts.SequentialWorkflowOperation)
}
func (*SequentialWorkflowOperation) Role() engine.Role { return engine.RoleHandler }

func (w *SequentialWorkflowOperation) Supports(evt *engine.Event, contract *blue.Node, _ *engine.ProcessingContext, _ string) bool {
	if evt.Source != engine.SourceChannel {
		return false
	}
	var spec contracts.WorkflowSpec
	if err := w.schema.Decode(contract, &spec); err != nil {
		return false
	}
	return spec.Operation != "" && spec.Operation == evt.ChannelName
}

func (w *SequentialWorkflowOperation) Handle(ctx context.Context, evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) error {
	return w.runner.run(ctx, evt, contract, pctx)
}
