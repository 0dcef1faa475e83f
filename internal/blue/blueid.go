package blue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainNode prefixes every node hash. The version suffix leaves room for
// a future algorithm change.
const DomainNode = "blue/node/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CalculateBlueID hashes the canonical form of n. Type links are hashed
// as written; use (*Blue).CalculateBlueID to resolve named types first.
func CalculateBlueID(n *Node) (BlueID, error) {
	if n != nil && n.BlueID != "" && isReference(n) {
		return n.BlueID, nil
	}
	data, err := MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("calculate blueId: %w", err)
	}
	return BlueID(hashWithDomain(DomainNode, data)), nil
}

// MustCalculateBlueID panics on failure. Used for static type definitions.
func MustCalculateBlueID(n *Node) BlueID {
	id, err := CalculateBlueID(n)
	if err != nil {
		panic(err)
	}
	return id
}

// isReference reports whether n is a pure {blueId: ...} reference.
func isReference(n *Node) bool {
	return n.Name == "" && n.Description == "" && n.Type == nil && n.Value == nil &&
		n.Items == nil && len(n.Properties) == 0
}
