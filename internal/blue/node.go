package blue

import (
	"maps"
	"slices"
)

// BlueID is the content hash identifying a value or a type.
type BlueID string

// ContractsKey is the property under which a node declares its contracts.
const ContractsKey = "contracts"

// Node is one element of a Blue document tree.
//
// Value holds a scalar (string, int64, float64, bool) or nil. Items and
// Properties are mutually independent; a node may carry both.
type Node struct {
	Name        string
	Description string
	Type        *Node
	BlueID      BlueID
	Value       any
	Items       []*Node
	Properties  map[string]*Node
}

// NewValue returns a node wrapping a scalar value.
func NewValue(v any) *Node {
	return &Node{Value: normalizeScalar(v)}
}

// NewTypeRef returns a type reference by name.
func NewTypeRef(name string) *Node {
	return &Node{Name: name}
}

// Prop returns the named property or nil.
func (n *Node) Prop(name string) *Node {
	if n == nil || n.Properties == nil {
		return nil
	}
	return n.Properties[name]
}

// Contracts returns the contracts declared on n, keyed by contract name.
// The returned map must not be modified.
func (n *Node) Contracts() map[string]*Node {
	c := n.Prop(ContractsKey)
	if c == nil {
		return nil
	}
	return c.Properties
}

// ContractNames returns the contract names of n in sorted order.
func (n *Node) ContractNames() []string {
	return slices.Sorted(maps.Keys(n.Contracts()))
}

// PropertyNames returns the property keys of n in sorted order.
func (n *Node) PropertyNames() []string {
	if n == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(n.Properties))
}

// StringValue returns the value of n as a string.
func (n *Node) StringValue() (string, bool) {
	if n == nil {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// NumberValue returns the value of n as a float64 if it is numeric.
func (n *Node) NumberValue() (float64, bool) {
	if n == nil {
		return 0, false
	}
	switch v := n.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// TypeName returns the name of the node's type link, if any.
func (n *Node) TypeName() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.Name
}

// IsEmpty reports whether n carries no content at all.
func (n *Node) IsEmpty() bool {
	return n == nil || (n.Name == "" && n.Description == "" && n.Type == nil &&
		n.BlueID == "" && n.Value == nil && n.Items == nil && len(n.Properties) == 0)
}

// shallowCopy copies the node struct together with its item slice and
// property map. Child nodes are shared.
func (n *Node) shallowCopy() *Node {
	if n == nil {
		return &Node{}
	}
	c := *n
	if n.Items != nil {
		c.Items = slices.Clone(n.Items)
	}
	if n.Properties != nil {
		c.Properties = maps.Clone(n.Properties)
	}
	return &c
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Name:        n.Name,
		Description: n.Description,
		Type:        n.Type.Clone(),
		BlueID:      n.BlueID,
		Value:       n.Value,
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, it := range n.Items {
			c.Items[i] = it.Clone()
		}
	}
	if n.Properties != nil {
		c.Properties = make(map[string]*Node, len(n.Properties))
		for k, v := range n.Properties {
			c.Properties[k] = v.Clone()
		}
	}
	return c
}

// Equal reports whether a and b have the same canonical content.
func Equal(a, b *Node) bool {
	ca, errA := MarshalCanonical(a)
	cb, errB := MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ca) == string(cb)
}
