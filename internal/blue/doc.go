// Package blue provides the Blue document model used by the engine.
//
// A document is a tree of *Node values. Nodes carry an optional name,
// description, type link, scalar value, item list and named properties.
// Contracts are ordinary properties stored under the reserved "contracts"
// key of a node.
//
// Documents are treated as immutable once built. ApplyPatch never mutates
// its input: it copies the nodes along the patched path and shares every
// untouched subtree with the previous root.
//
// Identity is content-addressed. CalculateBlueID hashes the canonical JSON
// form of a node (RFC 8785 key ordering, NFC strings) with a domain prefix,
// so equal content always yields the same BlueID.
//
// This package imports nothing internal; every other package builds on it.
package blue
