package engine

import (
	"os"
	"slices"
	"strconv"
	"strings"
)

// EnvTracing toggles hop recording. Values are parsed with
// strconv.ParseBool, so "false", "0", "f" and "F" turn it off. Unset, or a
// value ParseBool rejects, leaves it on.
const EnvTracing = "TRACE_BLUE_ENABLED"

// MaxTraceLength caps the hops an event remembers; the oldest drop first.
const MaxTraceLength = 128

// tracer records which (node, contract) hops an event chain has passed
// and detects a chain returning to a hop it already visited.
//
// Only recorded hops can be detected, so with tracing off loop detection
// never fires; the step breaker and the gas meter still bound the run.
type tracer struct {
	enabled bool
}

func hopID(nodePath, contractName string) string {
	return nodePath + "#" + contractName
}

// wouldLoop reports whether scheduling hop for evt closes a loop.
// External events start a new chain and never loop.
func (t tracer) wouldLoop(evt *Event, hop string) bool {
	return evt.Source != SourceExternal && slices.Contains(evt.Trace, hop)
}

// withHop returns a copy of evt carrying hop.
func (t tracer) withHop(evt *Event, hop string) *Event {
	c := evt.Clone()
	if !t.enabled {
		return c
	}
	c.Trace = append(c.Trace, hop)
	if n := len(c.Trace); n > MaxTraceLength {
		c.Trace = slices.Clone(c.Trace[n-MaxTraceLength:])
	}
	return c
}

func tracingFromEnv() bool {
	v, ok := os.LookupEnv(EnvTracing)
	if !ok {
		return true
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return true
	}
	return enabled
}
