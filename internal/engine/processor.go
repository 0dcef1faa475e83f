package engine

import (
	"context"

	"github.com/roach88/bluedoc/internal/blue"
)

// Role decides what the router does with a matched contract.
type Role int

const (
	// RoleAdapter processors run inline during routing and may only emit
	// events.
	RoleAdapter Role = iota + 1
	// RoleHandler processors are queued and run by the drain loop.
	RoleHandler
	// RoleValidator contracts match but are otherwise inert.
	RoleValidator
	// RoleMarker contracts are passive declarations.
	RoleMarker
)

func (r Role) String() string {
	switch r {
	case RoleAdapter:
		return "adapter"
	case RoleHandler:
		return "handler"
	case RoleValidator:
		return "validator"
	case RoleMarker:
		return "marker"
	}
	return "unknown"
}

// Processor implements the behavior of one contract type.
//
// Supports must not have side effects. Handle requests changes only
// through pctx; it never sees documents other than the snapshot pctx was
// built from.
type Processor interface {
	ContractType() string
	ContractBlueID() blue.BlueID
	Role() Role
	Supports(evt *Event, contract *blue.Node, pctx *ProcessingContext, name string) bool
	Handle(ctx context.Context, evt *Event, contract *blue.Node, pctx *ProcessingContext, name string) error
}

// Language is the document collaborator the engine depends on.
// *blue.Blue implements it.
type Language interface {
	CalculateBlueID(n *blue.Node) (blue.BlueID, error)
	TypeBlueID(t *blue.Node) blue.BlueID
	IsTypeOf(n *blue.Node, typeID blue.BlueID) bool
	ApplyPatch(doc *blue.Node, p blue.Patch) (*blue.Node, error)
}
