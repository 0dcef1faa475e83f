package blue

import "fmt"

// Blue bundles the document operations the engine consumes: content
// hashing with type resolution, type matching with inheritance, and
// immutable patch application.
type Blue struct {
	repo *Repository
}

// New returns a Blue bound to repo.
func New(repo *Repository) *Blue {
	if repo == nil {
		repo = NewRepository()
	}
	return &Blue{repo: repo}
}

// Repository returns the type repository.
func (b *Blue) Repository() *Repository {
	return b.repo
}

// CalculateBlueID hashes n with named type links replaced by their BlueID
// references, so a type written by name or by id hashes the same.
func (b *Blue) CalculateBlueID(n *Node) (BlueID, error) {
	if n != nil && n.BlueID != "" && isReference(n) {
		return n.BlueID, nil
	}
	data, err := marshalCanonical(simple(n, b.typeRef))
	if err != nil {
		return "", fmt.Errorf("calculate blueId: %w", err)
	}
	return BlueID(hashWithDomain(DomainNode, data)), nil
}

func (b *Blue) typeRef(t *Node) any {
	if id := b.repo.TypeBlueID(t); id != "" {
		return map[string]any{keyBlueID: string(id)}
	}
	return nil
}

// TypeBlueID resolves a type link.
func (b *Blue) TypeBlueID(t *Node) BlueID {
	return b.repo.TypeBlueID(t)
}

// IsTypeOf reports whether n's type is typeID or extends it. Inline type
// definitions are followed through their own type links.
func (b *Blue) IsTypeOf(n *Node, typeID BlueID) bool {
	if n == nil {
		return false
	}
	for t, depth := n.Type, 0; t != nil && depth < 64; t, depth = t.Type, depth+1 {
		if b.repo.Extends(b.repo.TypeBlueID(t), typeID) {
			return true
		}
	}
	return false
}

// ApplyPatch applies p immutably.
func (b *Blue) ApplyPatch(doc *Node, p Patch) (*Node, error) {
	return ApplyPatch(doc, p)
}
