package harness

import (
	"github.com/roach88/bluedoc/internal/blue"
)

// Trace entry kinds.
const (
	KindTask  = "task"
	KindDrop  = "drop"
	KindPatch = "patch"
	KindRun   = "run"
)

// TraceEvent is one observed engine step.
type TraceEvent struct {
	Kind         string `json:"kind"`
	Node         string `json:"node,omitempty"`
	Contract     string `json:"contract,omitempty"`
	ContractType string `json:"type,omitempty"`
	PatchOp      string `json:"op,omitempty"`
	Path         string `json:"path,omitempty"`
	Reason       string `json:"reason,omitempty"`
	RunOp        string `json:"run,omitempty"`
	Error        string `json:"error,omitempty"`
}

// canonical renders the event with empty fields left out.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{"kind": e.Kind}
	for k, v := range map[string]string{
		"node":     e.Node,
		"contract": e.Contract,
		"type":     e.ContractType,
		"op":       e.PatchOp,
		"path":     e.Path,
		"reason":   e.Reason,
		"run":      e.RunOp,
		"error":    e.Error,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass   bool
	Errors []string

	Trace []TraceEvent
	// Emitted holds the events of Initialize followed by those of
	// ProcessEvents.
	Emitted []*blue.Node
	// State is the final document, or nil when a call failed.
	State   *blue.Node
	GasUsed int64
	// Err is the error returned by the engine, if any.
	Err error
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failed check.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
