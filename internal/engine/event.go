package engine

import (
	"slices"

	"github.com/roach88/bluedoc/internal/blue"
)

// Source tells where an event entered the engine.
type Source string

const (
	// SourceExternal marks events handed to ProcessEvents. An external
	// event starts a new causal chain.
	SourceExternal Source = "external"
	// SourceInternal marks events emitted by handlers and the engine.
	SourceInternal Source = "internal"
	// SourceChannel marks events forwarded by a channel contract.
	SourceChannel Source = "channel"
)

// Emission types.
const (
	EmissionLifecycle = "lifecycle"
	EmissionUpdate    = "update"
)

// Event is a payload plus routing metadata. Events are copied, never
// shared mutably, as they propagate; only Seq is stamped in place the
// first time an event is routed.
type Event struct {
	Payload        *blue.Node
	Source         Source
	ChannelName    string
	OriginNodePath string
	DispatchPath   string
	EmissionType   string
	Seq            int64
	RootEvent      *Event
	Trace          []string
}

// Clone returns a copy of e with its own trace slice. Payload and
// RootEvent stay shared.
func (e *Event) Clone() *Event {
	c := *e
	c.Trace = slices.Clone(e.Trace)
	return &c
}

// ActionKind distinguishes buffered side effects.
type ActionKind int

const (
	// ActionPatch requests a document patch.
	ActionPatch ActionKind = iota + 1
	// ActionEvent requests an event emission.
	ActionEvent
)

func (k ActionKind) String() string {
	switch k {
	case ActionPatch:
		return "patch"
	case ActionEvent:
		return "event"
	}
	return "unknown"
}

// Action is a side effect a processor buffered on its context.
type Action struct {
	Kind  ActionKind
	Patch blue.Patch
	Event *Event
}
