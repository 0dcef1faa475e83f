package blue

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// PatchOp names a JSON Patch style operation.
type PatchOp string

const (
	OpAdd     PatchOp = "add"
	OpReplace PatchOp = "replace"
	OpRemove  PatchOp = "remove"
	OpMove    PatchOp = "move"
	OpCopy    PatchOp = "copy"
	OpTest    PatchOp = "test"
)

var (
	// ErrPathNotFound is returned when a patch addresses a missing node.
	ErrPathNotFound = errors.New("path not found")
	// ErrTestFailed is returned when a test operation does not match.
	ErrTestFailed = errors.New("test failed")
	// ErrInvalidPatch is returned for malformed operations.
	ErrInvalidPatch = errors.New("invalid patch")
)

// Patch is one document mutation. Val is used by add, replace and test;
// From by move and copy.
type Patch struct {
	Op   PatchOp
	Path string
	From string
	Val  *Node
}

// TouchedPaths returns every path the patch reads from or writes to.
func (p Patch) TouchedPaths() []string {
	if p.Op == OpMove || p.Op == OpCopy {
		return []string{p.From, p.Path}
	}
	if p.Op == OpTest {
		return nil
	}
	return []string{p.Path}
}

func (p Patch) String() string {
	if p.From != "" {
		return fmt.Sprintf("%s %s -> %s", p.Op, p.From, p.Path)
	}
	return fmt.Sprintf("%s %s", p.Op, p.Path)
}

// ApplyPatch returns a new document with p applied. doc is never
// modified; nodes outside the patched path are shared with the result.
// Add creates missing intermediate nodes.
func ApplyPatch(doc *Node, p Patch) (*Node, error) {
	segs := SplitPath(p.Path)
	switch p.Op {
	case OpAdd:
		return addAt(doc, segs, valueOrNull(p.Val))
	case OpReplace:
		if len(segs) == 0 {
			return valueOrNull(p.Val), nil
		}
		return update(doc, segs, false, func(parent *Node, last string) error {
			if parent.child(last) == nil {
				return fmt.Errorf("replace %s: %w", p.Path, ErrPathNotFound)
			}
			return setChild(parent, last, valueOrNull(p.Val))
		})
	case OpRemove:
		return removeAt(doc, segs, p.Path)
	case OpMove:
		from := SplitPath(p.From)
		val := doc.getSegments(from)
		if val == nil {
			return nil, fmt.Errorf("move from %s: %w", p.From, ErrPathNotFound)
		}
		if IsInside(p.Path, p.From) && JoinPath(segs) != JoinPath(from) {
			return nil, fmt.Errorf("move %s into its own child %s: %w", p.From, p.Path, ErrInvalidPatch)
		}
		removed, err := removeAt(doc, from, p.From)
		if err != nil {
			return nil, err
		}
		return addAt(removed, segs, val)
	case OpCopy:
		val := doc.Get(p.From)
		if val == nil {
			return nil, fmt.Errorf("copy from %s: %w", p.From, ErrPathNotFound)
		}
		return addAt(doc, segs, val.Clone())
	case OpTest:
		got := doc.getSegments(segs)
		if got == nil {
			return nil, fmt.Errorf("test %s: %w", p.Path, ErrPathNotFound)
		}
		if !Equal(got, valueOrNull(p.Val)) {
			return nil, fmt.Errorf("test %s: %w", p.Path, ErrTestFailed)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown op %q: %w", p.Op, ErrInvalidPatch)
	}
}

func valueOrNull(v *Node) *Node {
	if v == nil {
		return &Node{}
	}
	return v
}

func addAt(doc *Node, segs []string, val *Node) (*Node, error) {
	if len(segs) == 0 {
		return val, nil
	}
	return update(doc, segs, true, func(parent *Node, last string) error {
		if parent.Items != nil {
			if last == "-" {
				parent.Items = append(parent.Items, val)
				return nil
			}
			i, err := strconv.Atoi(last)
			if err != nil || i < 0 || i > len(parent.Items) {
				return fmt.Errorf("add: bad list index %q: %w", last, ErrInvalidPatch)
			}
			parent.Items = slices.Insert(parent.Items, i, val)
			return nil
		}
		return setChild(parent, last, val)
	})
}

func removeAt(doc *Node, segs []string, path string) (*Node, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("remove: cannot remove the document root: %w", ErrInvalidPatch)
	}
	return update(doc, segs, false, func(parent *Node, last string) error {
		if parent.child(last) == nil {
			return fmt.Errorf("remove %s: %w", path, ErrPathNotFound)
		}
		if _, ok := parent.Properties[last]; ok {
			delete(parent.Properties, last)
			return nil
		}
		if parent.Items != nil {
			i, _ := strconv.Atoi(last)
			parent.Items = slices.Delete(parent.Items, i, i+1)
			return nil
		}
		switch last {
		case keyType:
			parent.Type = nil
		case keyValue:
			parent.Value = nil
		}
		return nil
	})
}

// update copies n and every node along segs, then lets fn mutate the copy
// of the last parent. When create is set, missing intermediates are made.
func update(n *Node, segs []string, create bool, fn func(parent *Node, last string) error) (*Node, error) {
	cp := n.shallowCopy()
	if len(segs) == 1 {
		if err := fn(cp, segs[0]); err != nil {
			return nil, err
		}
		return cp, nil
	}
	var child *Node
	if n != nil {
		child = n.child(segs[0])
	}
	if child == nil {
		if !create {
			return nil, fmt.Errorf("/%s: %w", segs[0], ErrPathNotFound)
		}
		child = &Node{}
	}
	next, err := update(child, segs[1:], create, fn)
	if err != nil {
		return nil, err
	}
	if err := setChild(cp, segs[0], next); err != nil {
		return nil, err
	}
	return cp, nil
}

// setChild writes val under seg on an already copied parent.
func setChild(parent *Node, seg string, val *Node) error {
	if _, ok := parent.Properties[seg]; ok {
		parent.Properties[seg] = val
		return nil
	}
	if parent.Items != nil {
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(parent.Items) {
			return fmt.Errorf("bad list index %q: %w", seg, ErrInvalidPatch)
		}
		parent.Items[i] = val
		return nil
	}
	switch {
	case seg == keyType && parent.Type != nil:
		parent.Type = val
		return nil
	case seg == keyValue && parent.Value != nil:
		parent.Value = val.Value
		return nil
	}
	if parent.Properties == nil {
		parent.Properties = make(map[string]*Node)
	}
	parent.Properties[seg] = val
	return nil
}
