package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T, opts ...Option) *Evaluator {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestEval_Values(t *testing.T) {
	e := newTestEvaluator(t)
	vars := Vars{
		VarDocument: map[string]any{"counter": int64(4), "name": "blue"},
		VarEvent:    map[string]any{"amount": 2.5},
		VarSteps:    map[string]any{"prev": map[string]any{"ok": true}},
	}

	tests := []struct {
		name string
		src  string
		want any
	}{
		{"int arithmetic", "document.counter + 1", int64(5)},
		{"float", "event.amount * 2.0", int64(5)},
		{"fraction", "event.amount / 2.0", 1.25},
		{"string", `document.name + "!"`, "blue!"},
		{"bool", "steps.prev.ok", true},
		{"list", "[1, 2, document.counter]", []any{int64(1), int64(2), int64(4)}},
		{"map", `{"n": document.counter}`, map[string]any{"n": int64(4)}},
		{"null", "null", nil},
		{"ext strings", `document.name.upperAscii()`, "BLUE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Eval(context.Background(), tt.src, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestEval_MissingVarsAreNull(t *testing.T) {
	e := newTestEvaluator(t)
	res, err := e.Eval(context.Background(), "event == null && size(steps) == 0", nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Value)
}

func TestEval_CompileError(t *testing.T) {
	e := newTestEvaluator(t)
	_, err := e.Eval(context.Background(), "1 +", nil)
	require.Error(t, err)
	assert.True(t, IsEvalError(err))

	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "compile", ee.Stage)
	assert.Error(t, e.Compile("1 +"))
	assert.NoError(t, e.Compile("1 + 1"))
}

func TestEval_RuntimeError(t *testing.T) {
	e := newTestEvaluator(t)
	_, err := e.Eval(context.Background(), "document.missing + 1", Vars{VarDocument: map[string]any{}})
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "eval", ee.Stage)
}

func TestEval_CostTracked(t *testing.T) {
	e := newTestEvaluator(t)
	small, err := e.Eval(context.Background(), "1 + 1", nil)
	require.NoError(t, err)
	big, err := e.Eval(context.Background(), "[1,2,3,4,5,6,7,8,9,10].map(x, x * x).filter(x, x > 10).size()", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), big.Value)
	assert.Greater(t, big.Cost, small.Cost)
}

func TestEval_CostLimit(t *testing.T) {
	e := newTestEvaluator(t, WithCostLimit(10))
	_, err := e.Eval(context.Background(), "[1,2,3,4,5,6,7,8,9,10].map(x, x * x).size()", nil)
	require.Error(t, err)
	assert.True(t, IsEvalError(err))
}

func TestNew_Options(t *testing.T) {
	e := newTestEvaluator(t, WithCostLimit(42), WithTimeout(0))
	assert.Equal(t, uint64(42), e.costLimit)
	assert.Zero(t, e.timeout)

	d := newTestEvaluator(t)
	assert.Equal(t, DefaultCostLimit, d.costLimit)
	assert.Equal(t, DefaultTimeout, d.timeout)
}
