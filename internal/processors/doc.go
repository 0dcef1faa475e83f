// Package processors implements the standard contract processors: the
// channels that turn raw events into named channel events, the Operation
// adapter, and the Sequential Workflow handlers with their steps.
//
// Register them on an engine with engine.WithProcessors(Defaults(ev)...).
package processors
