package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/bluedoc/internal/blue"
)

// AssertionError describes a failed check with the emitted events for
// context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Emitted  []*blue.Node
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Emitted) > 0 {
		fmt.Fprintf(&buf, "\nEmitted events:\n")
		for i, evt := range e.Emitted {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, evt)
		}
	}
	return buf.String()
}

// normalize passes a YAML value through the node model so numbers and
// type links compare the way the engine stores them.
func normalize(v any) any {
	n, err := blue.FromValue(v)
	if err != nil {
		return v
	}
	return blue.ToValue(n)
}

// matchValue reports whether actual contains expected: maps by key
// subset, lists as unordered element subsets, anything else by equality.
func matchValue(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			av, present := act[k]
			if !present || !matchValue(av, v) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return false
		}
		for _, want := range exp {
			if !slices.ContainsFunc(act, func(have any) bool { return matchValue(have, want) }) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

func emittedTypes(emitted []*blue.Node) []string {
	out := make([]string, len(emitted))
	for i, e := range emitted {
		out[i] = e.TypeName()
	}
	return out
}

func assertEmittedContains(result *Result, a Assertion) error {
	want := normalize(a.Event)
	for _, evt := range result.Emitted {
		if matchValue(blue.ToValue(evt), want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEmittedContains,
		Expected: fmt.Sprintf("an event containing %v", a.Event),
		Actual:   "not emitted",
		Emitted:  result.Emitted,
	}
}

func assertEmittedOrder(result *Result, a Assertion) error {
	types := emittedTypes(result.Emitted)
	pos := 0
	for _, want := range a.Types {
		i := slices.Index(types[pos:], want)
		if i < 0 {
			return &AssertionError{
				Type:     AssertEmittedOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Types),
				Actual:   fmt.Sprintf("no %s after position %d in %v", want, pos, types),
				Emitted:  result.Emitted,
			}
		}
		pos += i + 1
	}
	return nil
}

func assertEmittedCount(result *Result, a Assertion) error {
	count := 0
	for _, name := range emittedTypes(result.Emitted) {
		if name == a.EventType {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEmittedCount,
			Expected: fmt.Sprintf("%d events of type %s", a.Count, a.EventType),
			Actual:   fmt.Sprintf("%d events", count),
			Emitted:  result.Emitted,
		}
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	if result.State == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("a final document to read %s from", a.Path),
			Actual:   "no final document",
		}
	}
	return checkPath(result.State, a.Path, a.Expect)
}

// checkPath compares the node at path with expected. A nil expected value
// requires the path to be absent.
func checkPath(doc *blue.Node, path string, expected any) error {
	got := doc.Get(path)
	if expected == nil {
		if got != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s to be absent", path),
				Actual:   got.String(),
			}
		}
		return nil
	}
	if got == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v", path, expected),
			Actual:   "path not found",
		}
	}
	if !matchValue(blue.ToValue(got), normalize(expected)) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v", path, expected),
			Actual:   got.String(),
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEmittedContains:
			err = assertEmittedContains(result, a)
		case AssertEmittedOrder:
			err = assertEmittedOrder(result, a)
		case AssertEmittedCount:
			err = assertEmittedCount(result, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// checkExpect applies the whole-run expectations.
func checkExpect(result *Result, exp *Expect) []string {
	var errs []string
	if exp == nil {
		if result.Err != nil {
			errs = append(errs, fmt.Sprintf("unexpected error: %v", result.Err))
		}
		return errs
	}

	switch {
	case exp.Error == "" && result.Err != nil:
		errs = append(errs, fmt.Sprintf("unexpected error: %v", result.Err))
	case exp.Error != "" && result.Err == nil:
		errs = append(errs, fmt.Sprintf("expected error %s, got none", exp.Error))
	case exp.Error != "" && ErrorCode(result.Err) != exp.Error && !strings.Contains(result.Err.Error(), exp.Error):
		errs = append(errs, fmt.Sprintf("expected error %s, got %s: %v", exp.Error, ErrorCode(result.Err), result.Err))
	}

	if exp.EmittedTypes != nil {
		if got := emittedTypes(result.Emitted); !slices.Equal(got, exp.EmittedTypes) {
			errs = append(errs, fmt.Sprintf("emitted types: expected %v, got %v", exp.EmittedTypes, got))
		}
	}

	if len(exp.State) > 0 {
		if result.State == nil {
			errs = append(errs, "state: no final document")
		} else {
			paths := make([]string, 0, len(exp.State))
			for p := range exp.State {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			for _, p := range paths {
				if err := checkPath(result.State, p, exp.State[p]); err != nil {
					errs = append(errs, fmt.Sprintf("state: %v", err))
				}
			}
		}
	}

	if exp.GasUsed != nil && *exp.GasUsed != result.GasUsed {
		errs = append(errs, fmt.Sprintf("gas used: expected %d, got %d", *exp.GasUsed, result.GasUsed))
	}
	return errs
}
