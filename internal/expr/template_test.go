package expr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
)

func TestExpressionDetection(t *testing.T) {
	tests := []struct {
		s        string
		whole    bool
		contains bool
	}{
		{"${a}", true, true},
		{"${document.x + 1}", true, true},
		{"x ${a} y", false, true},
		{"${a}${b}", false, true},
		{"plain", false, false},
		{"$a", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			assert.Equal(t, tt.whole, IsExpression(tt.s))
			assert.Equal(t, tt.contains, ContainsExpression(tt.s))
		})
	}

	src, err := ExtractExpression("${ 1 + 2 }")
	require.NoError(t, err)
	assert.Equal(t, " 1 + 2 ", src)
	_, err = ExtractExpression("nope")
	assert.Error(t, err)
}

func TestResolveTemplate(t *testing.T) {
	e := newTestEvaluator(t)
	vars := Vars{VarEvent: map[string]any{"who": "world", "n": int64(3)}}
	var charged int
	charge := func(uint64) error { charged++; return nil }

	out, err := e.ResolveTemplate(context.Background(), "hello ${event.who} x${event.n}${null}", vars, charge)
	require.NoError(t, err)
	assert.Equal(t, "hello world x3", out)
	assert.Equal(t, 3, charged)
}

func TestResolveNode(t *testing.T) {
	e := newTestEvaluator(t)
	vars := Vars{VarDocument: map[string]any{"counter": int64(1)}}
	n := blue.MustFromValue(map[string]any{
		"type":  "Some Type",
		"plain": "text",
		"next":  "${document.counter + 1}",
		"label": "count=${document.counter}",
		"list":  []any{"${[document.counter]}", 7},
	})

	out, err := e.ResolveNode(context.Background(), n, vars, nil)
	require.NoError(t, err)

	assert.Equal(t, "Some Type", out.TypeName())
	got, _ := out.Prop("plain").StringValue()
	assert.Equal(t, "text", got)
	next, _ := out.Prop("next").NumberValue()
	assert.Equal(t, 2.0, next)
	label, _ := out.Prop("label").StringValue()
	assert.Equal(t, "count=1", label)
	require.Len(t, out.Prop("list").Items, 2)
	require.Len(t, out.Prop("list").Items[0].Items, 1)

	// The input is untouched.
	orig, _ := n.Prop("next").StringValue()
	assert.Equal(t, "${document.counter + 1}", orig)
}

func TestResolveNode_ChargeErrorAborts(t *testing.T) {
	e := newTestEvaluator(t)
	stop := errors.New("out of gas")
	n := blue.MustFromValue(map[string]any{"v": "${1 + 1}"})

	_, err := e.ResolveNode(context.Background(), n, nil, func(uint64) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestResolveString(t *testing.T) {
	e := newTestEvaluator(t)
	v, err := e.ResolveString(context.Background(), "${2 * 21}", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = e.ResolveString(context.Background(), "/items/${1 + 1}", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/items/2", v)

	v, err = e.ResolveString(context.Background(), "plain", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", v)
}
