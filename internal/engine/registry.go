package engine

import "github.com/roach88/bluedoc/internal/blue"

// Registry maps contract type BlueIDs to processors and their priority.
type Registry struct {
	byType map[blue.BlueID]registration
	order  []blue.BlueID
}

type registration struct {
	proc     Processor
	priority int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[blue.BlueID]registration)}
}

// Register adds p with its registration index as priority.
func (r *Registry) Register(p Processor) error {
	return r.register(p, len(r.order))
}

// RegisterOrdered adds p with an explicit priority. Lower runs first.
func (r *Registry) RegisterOrdered(p Processor, priority int) error {
	return r.register(p, priority)
}

func (r *Registry) register(p Processor, priority int) error {
	id := p.ContractBlueID()
	if _, dup := r.byType[id]; dup {
		return newDuplicateProcessorError(p.ContractType(), id)
	}
	r.byType[id] = registration{proc: p, priority: priority}
	r.order = append(r.order, id)
	return nil
}

// Get returns the processor for a contract type, or nil.
func (r *Registry) Get(id blue.BlueID) Processor {
	return r.byType[id].proc
}

// OrderOf returns the priority of a contract type; unknown types get 0.
func (r *Registry) OrderOf(id blue.BlueID) int {
	return r.byType[id].priority
}

// Processors returns the registered processors in registration order.
func (r *Registry) Processors() []Processor {
	out := make([]Processor, len(r.order))
	for i, id := range r.order {
		out[i] = r.byType[id].proc
	}
	return out
}
