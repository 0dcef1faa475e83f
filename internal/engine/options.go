package engine

import "log/slog"

// DefaultMaxDrainSteps is the step circuit breaker of one drain.
const DefaultMaxDrainSteps = 10000

// Option configures an Engine.
type Option func(*Engine)

// WithProcessors registers processors after the built-in ones, in order.
func WithProcessors(ps ...Processor) Option {
	return func(e *Engine) {
		e.pending = append(e.pending, ps...)
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracing overrides the TRACE_BLUE_ENABLED environment toggle.
// Disabling tracing also disables loop detection.
func WithTracing(enabled bool) Option {
	return func(e *Engine) {
		e.tracing = enabled
	}
}

// WithObserver installs an observer, e.g. a metrics collector.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithRunTokens sets the generator naming each call in logs.
func WithRunTokens(g RunTokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithMaxDrainSteps sets the drain circuit breaker.
//
// Default: 10000 (DefaultMaxDrainSteps). Small values are useful for
// testing the breaker.
func WithMaxDrainSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// RunOption configures one Initialize or ProcessEvents call.
type RunOption func(*runConfig)

type runConfig struct {
	budget  int64
	limited bool
}

// WithGasBudget bounds the gas the call may consume.
func WithGasBudget(budget int64) RunOption {
	return func(c *runConfig) {
		c.budget = budget
		c.limited = true
	}
}

func newGasMeterFor(opts []RunOption) *GasMeter {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limited {
		return NewGasMeterWithBudget(cfg.budget)
	}
	return NewGasMeter()
}
