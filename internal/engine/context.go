package engine

import (
	"slices"

	"github.com/roach88/bluedoc/internal/blue"
)

// ProcessingContext is what a processor sees of the engine while it runs
// one task: a frozen document snapshot, its own position in it, the gas
// meter, and a buffer for the patches and events it wants to produce.
//
// Buffered actions take effect only after the processor returns and the
// engine drains them with Flush.
type ProcessingContext struct {
	doc     *blue.Node
	task    *Task
	lang    Language
	gas     *GasMeter
	actions []Action
}

func newProcessingContext(doc *blue.Node, task *Task, lang Language, gas *GasMeter) *ProcessingContext {
	return &ProcessingContext{doc: doc, task: task, lang: lang, gas: gas}
}

// Get returns the node at rel, resolved against the task's node.
func (c *ProcessingContext) Get(rel string) *blue.Node {
	return c.doc.Get(c.ResolvePath(rel))
}

// Document returns the whole snapshot.
func (c *ProcessingContext) Document() *blue.Node {
	return c.doc
}

// AddPatch buffers a patch. Paths are resolved against the task's node.
func (c *ProcessingContext) AddPatch(p blue.Patch) {
	p.Path = c.ResolvePath(p.Path)
	if p.From != "" {
		p.From = c.ResolvePath(p.From)
	}
	c.actions = append(c.actions, Action{Kind: ActionPatch, Patch: p})
}

// EmitEvent buffers an event. Unset fields are filled in: the origin is
// the task's node, the root is the input event's root (or the input
// itself), the source is internal. The trace is always a copy of the
// input event's trace.
func (c *ProcessingContext) EmitEvent(evt *Event) {
	input := c.task.Event
	out := *evt
	if out.OriginNodePath == "" {
		out.OriginNodePath = c.task.NodePath
	}
	if out.RootEvent == nil {
		if input.RootEvent != nil {
			out.RootEvent = input.RootEvent
		} else {
			out.RootEvent = input
		}
	}
	if out.Source == "" {
		out.Source = SourceInternal
	}
	out.Trace = slices.Clone(input.Trace)
	c.actions = append(c.actions, Action{Kind: ActionEvent, Event: &out})
}

// Flush returns the buffered actions in order and empties the buffer.
func (c *ProcessingContext) Flush() []Action {
	out := c.actions
	c.actions = nil
	return out
}

// NodePath returns the absolute path of the node owning the contract.
func (c *ProcessingContext) NodePath() string {
	return c.task.NodePath
}

// ResolvePath resolves rel against the task's node.
func (c *ProcessingContext) ResolvePath(rel string) string {
	return blue.ResolvePath(c.task.NodePath, rel)
}

// TaskInfo returns the task being processed.
func (c *ProcessingContext) TaskInfo() Task {
	return *c.task
}

// GasMeter returns the meter of the current call.
func (c *ProcessingContext) GasMeter() *GasMeter {
	return c.gas
}

// Language returns the document collaborator.
func (c *ProcessingContext) Language() Language {
	return c.lang
}
