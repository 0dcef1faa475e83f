package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
)

// fakeProcessor is a configurable processor for a test-only contract type.
// Without a supports func it matches external events only.
type fakeProcessor struct {
	typ      string
	id       blue.BlueID
	role     Role
	supports func(evt *Event, pctx *ProcessingContext, name string) bool
	handle   func(evt *Event, contract *blue.Node, pctx *ProcessingContext, name string) error
}

func (p *fakeProcessor) ContractType() string        { return p.typ }
func (p *fakeProcessor) ContractBlueID() blue.BlueID { return p.id }
func (p *fakeProcessor) Role() Role                  { return p.role }

func (p *fakeProcessor) Supports(evt *Event, _ *blue.Node, pctx *ProcessingContext, name string) bool {
	if p.supports == nil {
		return evt.Source == SourceExternal
	}
	return p.supports(evt, pctx, name)
}

func (p *fakeProcessor) Handle(_ context.Context, evt *Event, contract *blue.Node, pctx *ProcessingContext, name string) error {
	if p.handle == nil {
		return nil
	}
	return p.handle(evt, contract, pctx, name)
}

// defineFake registers a new contract type on lang and returns a processor
// for it.
func defineFake(lang *blue.Blue, typ string, role Role) *fakeProcessor {
	id := lang.Repository().MustDefine(typ, "", "test type")
	return &fakeProcessor{typ: typ, id: id, role: role}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, lang *blue.Blue, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithRunTokens(NewFixedGenerator("test-run")),
		WithTracing(true),
	}
	e, err := New(lang, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func mustDoc(v map[string]any) *blue.Node {
	return blue.MustFromValue(v)
}

func initialize(t *testing.T, e *Engine, doc *blue.Node) *blue.Node {
	t.Helper()
	res, err := e.Initialize(context.Background(), doc)
	require.NoError(t, err)
	return res.State
}

func ping(label string) *blue.Node {
	return mustDoc(map[string]any{"type": "Ping", "label": label})
}

// recordingObserver keeps every callback for assertions.
type recordingObserver struct {
	executed []TaskRecord
	dropped  []string
	patches  []blue.Patch
	runs     []RunRecord
}

func (o *recordingObserver) TaskExecuted(t TaskRecord) { o.executed = append(o.executed, t) }
func (o *recordingObserver) TaskDropped(t TaskRecord, reason string) {
	o.dropped = append(o.dropped, t.NodePath+"#"+t.ContractName+": "+reason)
}
func (o *recordingObserver) PatchApplied(_ TaskRecord, p blue.Patch) { o.patches = append(o.patches, p) }
func (o *recordingObserver) RunCompleted(r RunRecord)                { o.runs = append(o.runs, r) }
