package blue

import (
	"strconv"
	"strings"
)

// SplitPath splits a JSON pointer style path into unescaped segments.
// "" and "/" both denote the root and yield no segments.
func SplitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = unescapeSegment(s)
	}
	return parts
}

// JoinPath is the inverse of SplitPath. No segments yields "/".
func JoinPath(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(escapeSegment(s))
	}
	return b.String()
}

// ResolvePath interprets rel relative to base. A leading slash on rel does
// not make it absolute: contract paths are always scoped to their node.
// "." and ".." segments are honored; ".." never climbs above the root.
func ResolvePath(base, rel string) string {
	segs := SplitPath(base)
	for _, s := range SplitPath(rel) {
		switch s {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}
	return JoinPath(segs)
}

// IsInside reports whether path equals region or lies below it.
func IsInside(path, region string) bool {
	path, region = JoinPath(SplitPath(path)), JoinPath(SplitPath(region))
	if region == "/" || path == region {
		return true
	}
	return strings.HasPrefix(path, region+"/")
}

func unescapeSegment(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// Get returns the node at path, or nil when nothing lives there.
// Segments address properties, list indexes, or the "type" link.
func (n *Node) Get(path string) *Node {
	return n.getSegments(SplitPath(path))
}

func (n *Node) getSegments(segs []string) *Node {
	cur := n
	for _, s := range segs {
		if cur == nil {
			return nil
		}
		cur = cur.child(s)
	}
	return cur
}

func (n *Node) child(seg string) *Node {
	if c, ok := n.Properties[seg]; ok {
		return c
	}
	if n.Items != nil {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(n.Items) {
			return n.Items[i]
		}
		return nil
	}
	switch seg {
	case keyType:
		return n.Type
	case keyValue:
		if n.Value != nil {
			return &Node{Value: n.Value}
		}
	}
	return nil
}
