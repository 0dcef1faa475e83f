package processors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
)

func TestExpressionGas(t *testing.T) {
	tests := []struct {
		cost uint64
		want int64
	}{
		{0, 5},
		{1, 6},
		{100, 6},
		{101, 7},
		{1000, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expressionGas(tt.cost), "cost %d", tt.cost)
	}
}

const counterDoc = `
counter: 3
contracts:
  timeline:
    type: Timeline Channel
    timelineId: alice
  run:
    type: Sequential Workflow
    channel: timeline
    steps: STEPS
`

func withSteps(steps string) string {
	return strings.Replace(counterDoc, "STEPS", steps, 1)
}

func TestUpdateDocumentStep(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	doc := initialized(t, e, withSteps(`
      - type: Update Document
        changeset:
          - op: replace
            path: /counter
            val: "${document.counter + 1}"
          - op: add
            path: "/labels/${event.message.label}"
            val: seen
          - op: remove
            path: /gone
`))
	doc, err := blue.ApplyPatch(doc, blue.Patch{Op: blue.OpAdd, Path: "/gone", Val: blue.NewValue(true)})
	require.NoError(t, err)

	res, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", map[string]any{"label": "hello"})})
	require.NoError(t, err)

	assert.EqualValues(t, 4, res.State.Get("/counter").Value)
	assert.Equal(t, "seen", res.State.Get("/labels/hello").Value)
	assert.Nil(t, res.State.Get("/gone"))

	require.Len(t, res.Emitted, 3)
	var paths, ops []string
	for _, u := range res.Emitted {
		assert.Equal(t, contracts.DocumentUpdate, u.TypeName())
		p, _ := u.Prop("path").StringValue()
		op, _ := u.Prop("op").StringValue()
		paths = append(paths, p)
		ops = append(ops, op)
	}
	assert.Equal(t, []string{"/counter", "/labels/hello", "/gone"}, paths)
	assert.Equal(t, []string{"replace", "add", "remove"}, ops)
	assert.Nil(t, res.Emitted[2].Prop("val"))
}

func TestUpdateDocumentStepRejectsUnknownOp(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	doc := initialized(t, e, withSteps(`
      - type: Update Document
        changeset:
          - op: move
            path: /counter
            val: 1
`))

	_, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported op "move"`)
}

func TestTriggerEventStep(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	doc := initialized(t, e, withSteps(`
      - type: Trigger Event
        event:
          type: Ping
          n: "${document.counter}"
          note: "counter is ${document.counter}"
`))

	res, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	ping := res.Emitted[0]
	assert.Equal(t, "Ping", ping.TypeName())
	assert.EqualValues(t, 3, ping.Prop("n").Value)
	assert.Equal(t, "counter is 3", ping.Prop("note").Value)
}

func TestExpressionStepEmitsEventsAndFeedsLaterSteps(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	doc := initialized(t, e, withSteps(`
      - name: Calc
        type: Expression
        code: "{'events': [{'type': 'Ping', 'n': document.counter}], 'doubled': document.counter * 2}"
      - type: Update Document
        changeset:
          - op: add
            path: /doubled
            val: "${steps.Calc.doubled}"
`))

	res, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.NoError(t, err)

	assert.EqualValues(t, 6, res.State.Get("/doubled").Value)
	assert.Equal(t, []string{"Ping", contracts.DocumentUpdate}, typeNames(res.Emitted))
	assert.EqualValues(t, 3, res.Emitted[0].Prop("n").Value)
}

func TestExpressionStepWrappedCode(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	doc := initialized(t, e, withSteps(`
      - name: Sum
        type: Expression
        code: "${document.counter + 10}"
      - type: Update Document
        changeset:
          - op: replace
            path: /counter
            val: "${steps.Sum}"
`))

	res, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.NoError(t, err)
	assert.EqualValues(t, 13, res.State.Get("/counter").Value)
}

func TestExpressionStepErrors(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())

	doc := initialized(t, e, withSteps(`
      - type: Expression
        code: "document.counter +"
`))
	_, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.Error(t, err)

	doc = initialized(t, e, withSteps(`
      - type: Expression
        code: "  "
`))
	_, err = e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code is required")
}

func TestExpressionGasIsCharged(t *testing.T) {
	e := newEngine(t, contracts.NewBlue())
	plain := initialized(t, e, withSteps(`
      - type: Trigger Event
        event:
          type: Ping
`))
	templated := initialized(t, e, withSteps(`
      - type: Trigger Event
        event:
          type: Ping
          n: "${document.counter}"
`))

	a, err := e.ProcessEvents(context.Background(), plain, []*blue.Node{entry("alice", nil)})
	require.NoError(t, err)
	b, err := e.ProcessEvents(context.Background(), templated, []*blue.Node{entry("alice", nil)})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, b.GasUsed-a.GasUsed, GasExpressionBase)

	_, err = e.ProcessEvents(context.Background(), templated, []*blue.Node{entry("alice", nil)},
		engine.WithGasBudget(b.GasUsed-1))
	assert.True(t, engine.IsGasError(err))
}

func TestUnsupportedStepType(t *testing.T) {
	lang := contracts.NewBlue()
	lang.Repository().MustDefine("Mystery", "", "test step")
	e := newEngine(t, lang)
	doc := initialized(t, e, withSteps(`
      - type: Mystery
`))

	_, err := e.ProcessEvents(context.Background(), doc, []*blue.Node{entry("alice", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported step type "Mystery"`)
}
