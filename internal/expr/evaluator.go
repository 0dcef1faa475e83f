package expr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
	"google.golang.org/protobuf/types/known/structpb"
)

// Variables available to every expression.
const (
	VarDocument = "document"
	VarEvent    = "event"
	VarSteps    = "steps"
	VarContract = "contract"
)

// Defaults for New.
const (
	DefaultCostLimit uint64 = 1_000_000
	DefaultTimeout          = 500 * time.Millisecond
)

// Vars binds the expression variables. Missing variables evaluate as null.
type Vars map[string]any

// Result is the outcome of one evaluation.
type Result struct {
	// Value is the result as plain Go data: nil, bool, int64, float64,
	// string, []any or map[string]any.
	Value any
	// Cost is the CEL runtime cost of the evaluation.
	Cost uint64
}

// EvalError reports a failed expression.
type EvalError struct {
	Expr  string
	Stage string
	Cause error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expression %s %q: %v", e.Stage, e.Expr, e.Cause)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

// IsEvalError reports whether err is an EvalError.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}

// Evaluator compiles and runs CEL expressions. Compiled programs are
// cached per source text. An Evaluator is safe for concurrent use.
type Evaluator struct {
	env       *cel.Env
	costLimit uint64
	timeout   time.Duration

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCostLimit bounds the runtime cost of a single evaluation.
func WithCostLimit(limit uint64) Option {
	return func(e *Evaluator) {
		e.costLimit = limit
	}
}

// WithTimeout bounds the wall-clock time of a single evaluation.
// Zero disables the deadline; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// New creates an Evaluator.
func New(opts ...Option) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarDocument, cel.DynType),
		cel.Variable(VarEvent, cel.DynType),
		cel.Variable(VarSteps, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarContract, cel.DynType),
		ext.Strings(),
		ext.Math(),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	e := &Evaluator{
		env:       env,
		costLimit: DefaultCostLimit,
		timeout:   DefaultTimeout,
		programs:  make(map[string]cel.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compile checks src without running it.
func (e *Evaluator) Compile(src string) error {
	_, err := e.program(src)
	return err
}

func (e *Evaluator) program(src string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.programs[src]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.programs[src]; hit {
		return prg, nil
	}
	ast, issues := e.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, &EvalError{Expr: src, Stage: "compile", Cause: issues.Err()}
	}
	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptTrackCost),
		cel.CostLimit(e.costLimit),
		cel.InterruptCheckFrequency(100),
	)
	if err != nil {
		return nil, &EvalError{Expr: src, Stage: "program", Cause: err}
	}
	e.programs[src] = prg
	return prg, nil
}

// Eval runs src against vars.
func (e *Evaluator) Eval(ctx context.Context, src string, vars Vars) (Result, error) {
	prg, err := e.program(src)
	if err != nil {
		return Result{}, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	activation := map[string]any{
		VarDocument: nil,
		VarEvent:    nil,
		VarSteps:    map[string]any{},
		VarContract: nil,
	}
	for k, v := range vars {
		activation[k] = v
	}

	out, det, err := prg.ContextEval(ctx, activation)
	var cost uint64
	if det != nil && det.ActualCost() != nil {
		cost = *det.ActualCost()
	}
	if err != nil {
		return Result{Cost: cost}, &EvalError{Expr: src, Stage: "eval", Cause: err}
	}

	native, err := out.ConvertToNative(reflect.TypeOf(&structpb.Value{}))
	if err != nil {
		return Result{Cost: cost}, &EvalError{Expr: src, Stage: "convert", Cause: err}
	}
	pb, ok := native.(*structpb.Value)
	if !ok {
		return Result{Cost: cost}, &EvalError{Expr: src, Stage: "convert", Cause: fmt.Errorf("unexpected %T", native)}
	}
	return Result{Value: normalize(pb.AsInterface()), Cost: cost}, nil
}

// normalize folds integral floats back into int64; structpb carries every
// number as a float64.
func normalize(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalize(val[k])
		}
		return val
	}
	return v
}
