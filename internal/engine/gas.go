package engine

import (
	"fmt"
	"math"
)

// Fixed gas charges.
const (
	GasRouteNode           int64 = 5
	GasContractMatch       int64 = 10
	GasProcessorInvocation int64 = 25
	GasPatch               int64 = 15
	GasEmitEvent           int64 = 10
)

// Unlimited is reported by Remaining when no budget was set.
const Unlimited int64 = math.MaxInt64

// GasMeter counts the work done by one Initialize or ProcessEvents call
// and stops the call once a configured budget is spent.
//
// Unlike the step breaker in the drain loop, the meter bounds every kind
// of work: routing, matching, invocation, patching, emission, and the
// expression costs workflow steps charge through it.
type GasMeter struct {
	budget   int64
	limited  bool
	consumed int64
}

// NewGasMeter returns a meter without a budget.
func NewGasMeter() *GasMeter {
	return &GasMeter{}
}

// NewGasMeterWithBudget returns a meter that fails past budget.
func NewGasMeterWithBudget(budget int64) *GasMeter {
	return &GasMeter{budget: budget, limited: true}
}

// Consume charges amount for reason. Non-positive amounts are ignored.
// Crossing the budget returns *GasBudgetExceededError.
func (g *GasMeter) Consume(amount int64, reason string) error {
	if amount <= 0 {
		return nil
	}
	g.consumed += amount
	if g.limited && g.consumed > g.budget {
		return &GasBudgetExceededError{
			Budget:     g.budget,
			Consumed:   g.consumed,
			ExceededBy: g.consumed - g.budget,
			Reason:     reason,
		}
	}
	return nil
}

// Consumed returns the total charged so far.
func (g *GasMeter) Consumed() int64 {
	return g.consumed
}

// Remaining returns max(0, budget-consumed), or Unlimited.
func (g *GasMeter) Remaining() int64 {
	if !g.limited {
		return Unlimited
	}
	return max(0, g.budget-g.consumed)
}

// Budget returns the configured budget and whether one is set.
func (g *GasMeter) Budget() (int64, bool) {
	return g.budget, g.limited
}

// Reset clears the consumed total, keeping the budget.
func (g *GasMeter) Reset() {
	g.consumed = 0
}

func (g *GasMeter) String() string {
	if !g.limited {
		return fmt.Sprintf("gas(%d/unlimited)", g.consumed)
	}
	return fmt.Sprintf("gas(%d/%d)", g.consumed, g.budget)
}
