package processors

import (
	"github.com/roach88/bluedoc/internal/engine"
	"github.com/roach88/bluedoc/internal/expr"
)

// Defaults returns the standard processors in registration order.
// Expression-bearing steps evaluate through ev.
func Defaults(ev *expr.Evaluator) []engine.Processor {
	steps := DefaultSteps(ev)
	return []engine.Processor{
		NewTimelineChannel(),
		NewLifecycleEventChannel(),
		NewDocumentUpdateChannel(),
		NewEmbeddedNodeChannel(),
		NewOperation(),
		NewSequentialWorkflow(steps...),
		NewSequentialWorkflowOperation(steps...),
	}
}
