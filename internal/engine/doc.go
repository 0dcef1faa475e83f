// Package engine implements the Blue contract dispatch and scheduling
// engine.
//
// A Blue document is a tree of nodes; any node may declare contracts under
// its "contracts" property. The engine routes events through the tree,
// lets contract processors react, and applies the patches and events they
// produce.
//
// ARCHITECTURE:
//
// Routing:
// An event is delivered to a start node and everything below it. At each
// visited node every contract is matched against its processor. Adapters
// run inline and may only emit events; handlers are queued.
//
// Draining:
// Queued tasks run in TaskKey order until none are left. Each task sees
// the document snapshot current when it starts, buffers patches and
// events, and the engine applies them in order afterwards.
//
// Event Processing Flow:
// 1. ProcessEvents takes external payloads one at a time
// 2. the payload is routed from the root
// 3. the queue is drained; emitted events are routed again on the way
// 4. checkpoint writes recorded for the event are applied
//
// CRITICAL PATTERNS:
//
// Gas:
// Every routing step, match, invocation, patch and emission is charged on
// one GasMeter per call. Exceeding the budget aborts the call.
//
// Isolation:
// Embedded documents (declared by Process Embedded contracts) may only be
// patched by contracts living inside them.
//
// Determinism:
// Event sequence numbers and task ids come from Clock counters; ordering
// never depends on wall-clock time or map iteration.
package engine
