package blue

import (
	"fmt"
	"sync"
)

// Repository holds named type definitions and their inheritance links.
// Types are identified by the BlueID of their definition node.
type Repository struct {
	mu      sync.RWMutex
	byName  map[string]BlueID
	defs    map[BlueID]*Node
	parents map[BlueID]BlueID
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		byName:  make(map[string]BlueID),
		defs:    make(map[BlueID]*Node),
		parents: make(map[BlueID]BlueID),
	}
}

// Define registers a type by name. parent names an already defined type
// or is empty. The definition's BlueID is returned.
func (r *Repository) Define(name, parent, description string) (BlueID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return "", fmt.Errorf("type %q already defined", name)
	}
	def := &Node{Name: name, Description: description}
	var parentID BlueID
	if parent != "" {
		id, ok := r.byName[parent]
		if !ok {
			return "", fmt.Errorf("type %q: unknown parent %q", name, parent)
		}
		parentID = id
		def.Type = &Node{BlueID: id}
	}
	id, err := CalculateBlueID(def)
	if err != nil {
		return "", fmt.Errorf("type %q: %w", name, err)
	}
	r.byName[name] = id
	r.defs[id] = def
	if parentID != "" {
		r.parents[id] = parentID
	}
	return id, nil
}

// MustDefine is Define for static type tables.
func (r *Repository) MustDefine(name, parent, description string) BlueID {
	id, err := r.Define(name, parent, description)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the BlueID registered for name.
func (r *Repository) Lookup(name string) (BlueID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Definition returns the definition node for id.
func (r *Repository) Definition(id BlueID) *Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[id]
}

// TypeBlueID resolves a type link to its BlueID: an explicit blueId wins,
// then a registered name, then the hash of the inline definition.
func (r *Repository) TypeBlueID(t *Node) BlueID {
	if t == nil {
		return ""
	}
	if t.BlueID != "" {
		return t.BlueID
	}
	if t.Name != "" {
		if id, ok := r.Lookup(t.Name); ok {
			return id
		}
	}
	id, err := CalculateBlueID(t)
	if err != nil {
		return ""
	}
	return id
}

// Extends reports whether id equals ancestor or inherits from it.
func (r *Repository) Extends(id, ancestor BlueID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for seen := 0; id != "" && seen < 64; seen++ {
		if id == ancestor {
			return true
		}
		id = r.parents[id]
	}
	return false
}
