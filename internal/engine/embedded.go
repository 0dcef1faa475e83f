package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
)

// processEmbedded redirects every non-channel event into each declared
// embedded document, so the subtree receives it starting at its own root.
type processEmbedded struct {
	schema contracts.Decoder
}

func (processEmbedded) ContractType() string        { return contracts.ProcessEmbedded }
func (processEmbedded) ContractBlueID() blue.BlueID { return contracts.ID(contracts.ProcessEmbedded) }
func (processEmbedded) Role() Role                  { return RoleAdapter }

// Supports excludes channel events so a channel inside the embedded
// document cannot trigger another outer redirect.
func (processEmbedded) Supports(evt *Event, _ *blue.Node, _ *ProcessingContext, _ string) bool {
	return evt.Source != SourceChannel
}

func (p processEmbedded) Handle(_ context.Context, evt *Event, contract *blue.Node, pctx *ProcessingContext, _ string) error {
	var spec contracts.ProcessEmbeddedSpec
	if err := p.schema.Decode(contract, &spec); err != nil {
		return fmt.Errorf("decode process embedded: %w", err)
	}
	for _, rel := range spec.Paths {
		c := evt.Clone()
		c.DispatchPath = pctx.ResolvePath(rel)
		pctx.EmitEvent(c)
	}
	return nil
}

// embeddedRegions lists the absolute roots of every embedded document
// declared anywhere in doc, sorted and deduplicated.
func embeddedRegions(doc *blue.Node, lang Language) []string {
	var out []string
	peID := contracts.ID(contracts.ProcessEmbedded)

	var walk func(n *blue.Node, segs []string)
	walk = func(n *blue.Node, segs []string) {
		nodePath := blue.JoinPath(segs)
		cs := n.Contracts()
		for _, name := range n.ContractNames() {
			c := cs[name]
			if !lang.IsTypeOf(c, peID) {
				continue
			}
			var spec contracts.ProcessEmbeddedSpec
			if err := contracts.ProcessEmbeddedSchema.Decode(c, &spec); err != nil {
				continue
			}
			for _, rel := range spec.Paths {
				out = append(out, blue.ResolvePath(nodePath, rel))
			}
		}
		for _, key := range n.PropertyNames() {
			if key == blue.ContractsKey {
				continue
			}
			walk(n.Properties[key], append(slices.Clip(segs), key))
		}
	}
	if doc != nil {
		walk(doc, nil)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// regionCache memoizes embeddedRegions for one document snapshot.
// Snapshots are immutable, so the root pointer identifies them.
type regionCache struct {
	doc     *blue.Node
	regions []string
}

func (c *regionCache) get(doc *blue.Node, lang Language) []string {
	if c.doc != doc || c.doc == nil {
		c.doc = doc
		c.regions = embeddedRegions(doc, lang)
	}
	return c.regions
}

// checkIsolation rejects a patch that writes inside an embedded region
// when the writing contract's node lies outside that region.
func checkIsolation(p blue.Patch, writerPath string, regions []string) error {
	for _, touched := range p.TouchedPaths() {
		for _, region := range regions {
			if blue.IsInside(touched, region) && !blue.IsInside(writerPath, region) {
				return &EmbeddedDocumentModificationError{
					Patch:           p,
					OffendingRegion: region,
					WriterPath:      writerPath,
				}
			}
		}
	}
	return nil
}
