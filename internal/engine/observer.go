package engine

import "github.com/roach88/bluedoc/internal/blue"

// TaskRecord describes one queued task for observers.
type TaskRecord struct {
	ID           int64
	Seq          int64
	Depth        int
	NodePath     string
	ContractName string
	ContractType string
}

// RunRecord summarizes one Initialize or ProcessEvents call.
type RunRecord struct {
	Op      string
	Events  int
	Tasks   int
	GasUsed int64
	Err     error
}

// Observer receives engine activity. Calls happen synchronously on the
// goroutine running the engine.
type Observer interface {
	TaskExecuted(t TaskRecord)
	TaskDropped(t TaskRecord, reason string)
	PatchApplied(t TaskRecord, p blue.Patch)
	RunCompleted(r RunRecord)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) TaskExecuted(TaskRecord)             {}
func (NopObserver) TaskDropped(TaskRecord, string)      {}
func (NopObserver) PatchApplied(TaskRecord, blue.Patch) {}
func (NopObserver) RunCompleted(RunRecord)              {}

func recordOf(t *Task) TaskRecord {
	return TaskRecord{
		ID:           t.Key.ID,
		Seq:          t.Key.Seq,
		Depth:        t.Key.Depth,
		NodePath:     t.NodePath,
		ContractName: t.ContractName,
		ContractType: t.Contract.TypeName(),
	}
}
