package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
)

// CheckpointPriority places the checkpoint processor after ordinary
// handlers of the same depth and event.
const CheckpointPriority = 9999

// checkpointRecord is the first channel event seen for one document base
// during the current external event.
type checkpointRecord struct {
	DocBase string
	Event   *Event
	BlueID  blue.BlueID
}

// checkpointCache collects records between the routing of an external
// event and the flush that follows its drain. First write wins per base;
// records are keyed by base path only, not by channel.
type checkpointCache struct {
	records map[string]checkpointRecord
	order   []string
}

func newCheckpointCache() *checkpointCache {
	return &checkpointCache{records: make(map[string]checkpointRecord)}
}

func (c *checkpointCache) record(base string, evt *Event, id blue.BlueID) bool {
	if _, ok := c.records[base]; ok {
		return false
	}
	c.records[base] = checkpointRecord{DocBase: base, Event: evt, BlueID: id}
	c.order = append(c.order, base)
	return true
}

func (c *checkpointCache) len() int {
	return len(c.order)
}

// patches turns the records into writes of
// <base>/contracts/checkpoint/lastEvents/<channel>/blueId, using add for
// a channel seen for the first time and replace otherwise.
func (c *checkpointCache) patches(doc *blue.Node) []blue.Patch {
	out := make([]blue.Patch, 0, len(c.order))
	for _, base := range c.order {
		rec := c.records[base]
		entry := append(blue.SplitPath(base), blue.ContractsKey, contracts.KeyCheckpoint, "lastEvents", rec.Event.ChannelName)
		idPath := blue.JoinPath(append(entry, "blueId"))
		op := blue.OpAdd
		if doc.Get(idPath) != nil {
			op = blue.OpReplace
		}
		out = append(out, blue.Patch{Op: op, Path: idPath, Val: blue.NewValue(string(rec.BlueID))})
	}
	return out
}

func (c *checkpointCache) clear() {
	clear(c.records)
	c.order = c.order[:0]
}

// checkpointProcessor records unmodified external events arriving through
// channels.
type checkpointProcessor struct {
	cache *checkpointCache
}

func (checkpointProcessor) ContractType() string { return contracts.ChannelEventCheckpoint }
func (checkpointProcessor) ContractBlueID() blue.BlueID {
	return contracts.ID(contracts.ChannelEventCheckpoint)
}
func (checkpointProcessor) Role() Role { return RoleHandler }

// Supports matches channel events whose payload is still the very payload
// of their external root event.
func (checkpointProcessor) Supports(evt *Event, _ *blue.Node, _ *ProcessingContext, _ string) bool {
	return evt.Source == SourceChannel &&
		evt.RootEvent != nil &&
		evt.RootEvent.Payload == evt.Payload &&
		evt.RootEvent.Source == SourceExternal
}

func (p checkpointProcessor) Handle(_ context.Context, evt *Event, _ *blue.Node, pctx *ProcessingContext, _ string) error {
	if evt.ChannelName == "" || evt.RootEvent.Seq == 0 {
		return nil
	}
	id, err := pctx.Language().CalculateBlueID(evt.RootEvent.Payload)
	if err != nil {
		return fmt.Errorf("checkpoint blueId: %w", err)
	}
	base := strings.TrimSuffix(pctx.NodePath(), "/"+blue.ContractsKey+"/"+contracts.KeyCheckpoint)
	if base == "" {
		base = "/"
	}
	p.cache.record(base, evt, id)
	return nil
}
