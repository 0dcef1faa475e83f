package processors

import (
	"context"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
)

// channel holds what every channel processor shares: the adapter role,
// the rule that channel events are never re-channeled, and forwarding.
type channel struct {
	typ    string
	schema contracts.Decoder
}

func (c channel) ContractType() string        { return c.typ }
func (c channel) ContractBlueID() blue.BlueID { return contracts.ID(c.typ) }
func (c channel) Role() engine.Role           { return engine.RoleAdapter }

func (channel) baseSupports(evt *engine.Event) bool {
	return evt.Source != engine.SourceChannel
}

// Handle re-emits the payload unchanged as a channel event named after
// the contract. Keeping the payload identical lets checkpointing
// recognize unmodified external events.
func (channel) Handle(_ context.Context, evt *engine.Event, _ *blue.Node, pctx *engine.ProcessingContext, name string) error {
	pctx.EmitEvent(&engine.Event{
		Payload:     evt.Payload,
		Source:      engine.SourceChannel,
		ChannelName: name,
	})
	return nil
}

// TimelineChannel forwards Timeline Entry events of one timeline.
type TimelineChannel struct {
	channel
}

// NewTimelineChannel returns the Timeline Channel processor.
func NewTimelineChannel() *TimelineChannel {
	return &TimelineChannel{channel{typ: contracts.TimelineChannel, schema: contracts.TimelineChannelSchema}}
}

func (c *TimelineChannel) Supports(evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) bool {
	if !c.baseSupports(evt) {
		return false
	}
	lang := pctx.Language()
	if !lang.IsTypeOf(evt.Payload, contracts.ID(contracts.TimelineEntry)) {
		return false
	}
	var spec contracts.TimelineChannelSpec
	if err := c.schema.Decode(contract, &spec); err != nil {
		return false
	}
	var entry contracts.TimelineEntrySpec
	if err := contracts.TimelineEntrySchema.Decode(evt.Payload, &entry); err != nil {
		return false
	}
	return spec.TimelineID != "" && entry.Timeline.TimelineID == spec.TimelineID
}

// LifecycleEventChannel forwards processing lifecycle events, optionally
// only those containing the contract's event pattern.
type LifecycleEventChannel struct {
	channel
}

// NewLifecycleEventChannel returns the Lifecycle Event Channel processor.
func NewLifecycleEventChannel() *LifecycleEventChannel {
	return &LifecycleEventChannel{channel{typ: contracts.LifecycleEventChannel, schema: contracts.LifecycleEventChannelSchema}}
}

func (c *LifecycleEventChannel) Supports(evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) bool {
	if !c.baseSupports(evt) {
		return false
	}
	if !pctx.Language().IsTypeOf(evt.Payload, contracts.ID(contracts.DocumentProcessingInitiated)) {
		return false
	}
	pattern := contract.Prop("event")
	return pattern == nil || nodeContains(evt.Payload, pattern)
}

// DocumentUpdateChannel forwards Document Update events for one path.
type DocumentUpdateChannel struct {
	channel
}

// NewDocumentUpdateChannel returns the Document Update Channel processor.
func NewDocumentUpdateChannel() *DocumentUpdateChannel {
	return &DocumentUpdateChannel{channel{typ: contracts.DocumentUpdateChannel, schema: contracts.DocumentUpdateChannelSchema}}
}

func (c *DocumentUpdateChannel) Supports(evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) bool {
	if !c.baseSupports(evt) || evt.EmissionType != engine.EmissionUpdate {
		return false
	}
	var spec contracts.PathSpec
	if err := c.schema.Decode(contract, &spec); err != nil {
		return false
	}
	path, ok := evt.Payload.Prop("path").StringValue()
	return ok && path == pctx.ResolvePath(spec.Path)
}

// EmbeddedNodeChannel forwards events emitted by contracts of one node,
// typically the root of an embedded document.
type EmbeddedNodeChannel struct {
	channel
}

// NewEmbeddedNodeChannel returns the Embedded Node Channel processor.
func NewEmbeddedNodeChannel() *EmbeddedNodeChannel {
	return &EmbeddedNodeChannel{channel{typ: contracts.EmbeddedNodeChannel, schema: contracts.EmbeddedNodeChannelSchema}}
}

func (c *EmbeddedNodeChannel) Supports(evt *engine.Event, contract *blue.Node, pctx *engine.ProcessingContext, _ string) bool {
	if !c.baseSupports(evt) || evt.OriginNodePath == "" {
		return false
	}
	var spec contracts.PathSpec
	if err := c.schema.Decode(contract, &spec); err != nil {
		return false
	}
	return evt.OriginNodePath == pctx.ResolvePath(spec.Path)
}
