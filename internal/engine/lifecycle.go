package engine

import (
	"context"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
)

// initializedMarker is the passive processor for Initialized Marker
// contracts. It never matches; registering it keeps the router from
// reporting the marker as an unknown contract type.
type initializedMarker struct{}

func (initializedMarker) ContractType() string { return contracts.InitializedMarker }
func (initializedMarker) ContractBlueID() blue.BlueID {
	return contracts.ID(contracts.InitializedMarker)
}
func (initializedMarker) Role() Role { return RoleMarker }
func (initializedMarker) Supports(*Event, *blue.Node, *ProcessingContext, string) bool {
	return false
}
func (initializedMarker) Handle(context.Context, *Event, *blue.Node, *ProcessingContext, string) error {
	return nil
}

// isInitialized reports whether the root carries an Initialized Marker
// contract, or a contract of a type extending it, under any name.
func isInitialized(doc *blue.Node, lang Language) bool {
	markerID := contracts.ID(contracts.InitializedMarker)
	for _, c := range doc.Contracts() {
		if lang.IsTypeOf(c, markerID) {
			return true
		}
	}
	return false
}

// ensureCheckpoints adds a checkpoint contract to the root and to every
// embedded document root that lacks one.
func ensureCheckpoints(doc *blue.Node, lang Language) (*blue.Node, error) {
	bases := append([]string{"/"}, embeddedRegions(doc, lang)...)
	for _, base := range bases {
		node := doc.Get(base)
		if node == nil || node.Contracts()[contracts.KeyCheckpoint] != nil {
			continue
		}
		p := blue.Patch{
			Op:   blue.OpAdd,
			Path: blue.ResolvePath(base, blue.ContractsKey+"/"+contracts.KeyCheckpoint),
			Val:  contracts.NewCheckpoint(),
		}
		next, err := lang.ApplyPatch(doc, p)
		if err != nil {
			return nil, &PatchApplicationError{Patch: p, Cause: err}
		}
		doc = next
	}
	return doc, nil
}

// ensureInitialized adds the initialized marker unless one exists.
func ensureInitialized(doc *blue.Node, lang Language) (*blue.Node, error) {
	if isInitialized(doc, lang) {
		return doc, nil
	}
	if doc.Contracts()[contracts.KeyInitialized] != nil {
		return nil, newReservedKeyError(contracts.KeyInitialized)
	}
	p := blue.Patch{
		Op:   blue.OpAdd,
		Path: "/" + blue.ContractsKey + "/" + contracts.KeyInitialized,
		Val:  contracts.NewInitializedMarker(),
	}
	next, err := lang.ApplyPatch(doc, p)
	if err != nil {
		return nil, &PatchApplicationError{Patch: p, Cause: err}
	}
	return next, nil
}
