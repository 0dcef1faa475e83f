package blue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Reserved keys of the simple (JSON-like) node form.
const (
	keyName        = "name"
	keyDescription = "description"
	keyType        = "type"
	keyBlueID      = "blueId"
	keyValue       = "value"
	keyItems       = "items"
)

// FromValue converts a JSON-like Go value (as produced by encoding/json or
// yaml.v3) into a node tree.
//
// Maps become nodes whose reserved keys (name, description, type, blueId,
// value, items) fill the matching fields; every other key becomes a
// property. A string under "type" is a type reference by name.
func FromValue(v any) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return &Node{}, nil
	case *Node:
		return val, nil
	case []any:
		items := make([]*Node, len(val))
		for i, elem := range val {
			n, err := FromValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = n
		}
		return &Node{Items: items}, nil
	case map[string]any:
		return fromMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[fmt.Sprint(k)] = elem
		}
		return fromMap(m)
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return &Node{Value: s}, nil
	}
}

// MustFromValue is FromValue for literals in code and tests.
func MustFromValue(v any) *Node {
	n, err := FromValue(v)
	if err != nil {
		panic(fmt.Sprintf("blue.MustFromValue: %v", err))
	}
	return n
}

func fromMap(m map[string]any) (*Node, error) {
	n := &Node{}
	if len(m) == 0 {
		n.Properties = map[string]*Node{}
	}
	for k, elem := range m {
		switch k {
		case keyName:
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("name: expected string, got %T", elem)
			}
			n.Name = s
		case keyDescription:
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("description: expected string, got %T", elem)
			}
			n.Description = s
		case keyType:
			if s, ok := elem.(string); ok {
				n.Type = NewTypeRef(s)
				continue
			}
			t, err := FromValue(elem)
			if err != nil {
				return nil, fmt.Errorf("type: %w", err)
			}
			n.Type = t
		case keyBlueID:
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("blueId: expected string, got %T", elem)
			}
			n.BlueID = BlueID(s)
		case keyValue:
			s, err := scalar(elem)
			if err != nil {
				return nil, fmt.Errorf("value: %w", err)
			}
			n.Value = s
		case keyItems:
			list, ok := elem.([]any)
			if !ok {
				return nil, fmt.Errorf("items: expected list, got %T", elem)
			}
			items, err := FromValue(list)
			if err != nil {
				return nil, fmt.Errorf("items%w", err)
			}
			n.Items = items.Items
		default:
			child, err := FromValue(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if n.Properties == nil {
				n.Properties = make(map[string]*Node)
			}
			n.Properties[k] = child
		}
	}
	return n, nil
}

func scalar(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return normalizeScalar(val), nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return int64(val), nil
	case float32:
		return normalizeScalar(float64(val)), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// normalizeScalar folds integral floats into int64 so values that went
// through JSON or an expression evaluator hash the same as literals.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
	}
	return v
}

// ToValue returns the simple JSON-like form of n. A node that only carries
// a value collapses to that value, a node that only carries items collapses
// to a list, and a type reference carrying only a name collapses to the
// name string.
func ToValue(n *Node) any {
	return simple(n, typeByName)
}

func typeByName(t *Node) any {
	if t.Name != "" && t.Description == "" && t.Type == nil && t.BlueID == "" &&
		t.Value == nil && t.Items == nil && len(t.Properties) == 0 {
		return t.Name
	}
	return nil
}

// simple builds the simple form; typeRef may collapse type links.
func simple(n *Node, typeRef func(*Node) any) any {
	if n == nil {
		return nil
	}
	// An empty but non-nil property map still renders as {}.
	onlyValue := n.Name == "" && n.Description == "" && n.Type == nil && n.BlueID == "" &&
		n.Items == nil && n.Properties == nil
	if onlyValue {
		return n.Value
	}
	if n.Name == "" && n.Description == "" && n.Type == nil && n.BlueID == "" &&
		n.Value == nil && n.Properties == nil {
		return simpleItems(n.Items, typeRef)
	}

	out := make(map[string]any, len(n.Properties)+4)
	if n.Name != "" {
		out[keyName] = n.Name
	}
	if n.Description != "" {
		out[keyDescription] = n.Description
	}
	if n.Type != nil {
		if ref := typeRef(n.Type); ref != nil {
			out[keyType] = ref
		} else {
			out[keyType] = simple(n.Type, typeRef)
		}
	}
	if n.BlueID != "" {
		out[keyBlueID] = string(n.BlueID)
	}
	if n.Value != nil {
		out[keyValue] = n.Value
	}
	if n.Items != nil {
		out[keyItems] = simpleItems(n.Items, typeRef)
	}
	for k, v := range n.Properties {
		out[k] = simple(v, typeRef)
	}
	return out
}

func simpleItems(items []*Node, typeRef func(*Node) any) []any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = simple(it, typeRef)
	}
	return list
}

// ParseJSON decodes a JSON document into a node tree. Numbers that fit in
// int64 stay integers.
func ParseJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return FromValue(v)
}

// ParseYAML decodes a YAML document into a node tree.
func ParseYAML(data []byte) (*Node, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return FromValue(v)
}

// MarshalJSON encodes the simple form of n.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToValue(n))
}

// UnmarshalJSON decodes a node from its simple JSON form.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// String renders n as compact JSON for logs and test failures.
func (n *Node) String() string {
	if n == nil {
		return "null"
	}
	b, err := MarshalCanonical(n)
	if err != nil {
		return "<" + strconv.Quote(err.Error()) + ">"
	}
	return string(b)
}
