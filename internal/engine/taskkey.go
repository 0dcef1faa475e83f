package engine

import (
	"cmp"
	"strings"

	"github.com/roach88/bluedoc/internal/blue"
)

// TaskKey orders queued work. Keys compare field by field, smallest
// first: deeper nodes, then earlier events, then lower type priority,
// then lower contract order, then contract name, then task id.
type TaskKey struct {
	Depth        int
	Seq          int64
	TypePriority int
	Order        float64
	ContractName string
	ID           int64
}

// Compare returns -1 when k runs before o, +1 when after, 0 when equal.
func (k TaskKey) Compare(o TaskKey) int {
	// Depth is negated in the ordering tuple: deeper runs first.
	if c := cmp.Compare(o.Depth, k.Depth); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Seq, o.Seq); c != 0 {
		return c
	}
	if c := cmp.Compare(k.TypePriority, o.TypePriority); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Order, o.Order); c != 0 {
		return c
	}
	if c := strings.Compare(k.ContractName, o.ContractName); c != 0 {
		return c
	}
	return cmp.Compare(k.ID, o.ID)
}

// Task is one scheduled invocation of a handler contract. Contract and
// Event are frozen when the task is queued.
type Task struct {
	Key          TaskKey
	NodePath     string
	ContractName string
	Contract     *blue.Node
	Event        *Event
}
