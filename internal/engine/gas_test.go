package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGasMeter_Unlimited(t *testing.T) {
	g := NewGasMeter()
	require.NoError(t, g.Consume(1_000_000, "big"))
	assert.Equal(t, int64(1_000_000), g.Consumed())
	assert.Equal(t, Unlimited, g.Remaining())
	_, limited := g.Budget()
	assert.False(t, limited)
	assert.Equal(t, "gas(1000000/unlimited)", g.String())
}

func TestGasMeter_IgnoresNonPositive(t *testing.T) {
	g := NewGasMeterWithBudget(10)
	require.NoError(t, g.Consume(0, "zero"))
	require.NoError(t, g.Consume(-5, "negative"))
	assert.Equal(t, int64(0), g.Consumed())
	assert.Equal(t, int64(10), g.Remaining())
}

func TestGasMeter_Budget(t *testing.T) {
	g := NewGasMeterWithBudget(20)
	require.NoError(t, g.Consume(GasRouteNode, "route /"))
	require.NoError(t, g.Consume(GasPatch, "patch /x"))
	assert.Equal(t, int64(0), g.Remaining())

	err := g.Consume(GasContractMatch, "match /#h")
	require.Error(t, err)
	assert.True(t, IsGasError(err))

	var ge *GasBudgetExceededError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, int64(20), ge.Budget)
	assert.Equal(t, int64(30), ge.Consumed)
	assert.Equal(t, int64(10), ge.ExceededBy)
	assert.Equal(t, "match /#h", ge.Reason)
	assert.Equal(t, int64(0), g.Remaining())
}

func TestGasMeter_Reset(t *testing.T) {
	g := NewGasMeterWithBudget(100)
	require.NoError(t, g.Consume(40, "x"))
	g.Reset()
	assert.Equal(t, int64(0), g.Consumed())
	budget, limited := g.Budget()
	assert.True(t, limited)
	assert.Equal(t, int64(100), budget)
	assert.Equal(t, "gas(0/100)", g.String())
}
