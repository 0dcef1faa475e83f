package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
)

func sampleResult() *Result {
	r := NewResult()
	r.Emitted = []*blue.Node{
		contracts.NewProcessingInitiated(),
		contracts.NewDocumentUpdate(blue.OpReplace, "/counter", blue.NewValue(1)),
		blue.MustFromValue(map[string]any{"type": "Ping", "tags": []any{"a", "b"}}),
		contracts.NewDocumentUpdate(blue.OpReplace, "/counter", blue.NewValue(2)),
	}
	r.State = blue.MustFromValue(map[string]any{
		"counter": 2,
		"nested":  map[string]any{"name_": "x", "list": []any{1, 2, 3}},
	})
	return r
}

func TestMatchValue(t *testing.T) {
	actual := map[string]any{
		"a": int64(1),
		"b": map[string]any{"c": "d", "e": []any{int64(1), int64(2)}},
	}
	tests := []struct {
		name     string
		expected any
		want     bool
	}{
		{"subset", map[string]any{"a": int64(1)}, true},
		{"nested subset", map[string]any{"b": map[string]any{"c": "d"}}, true},
		{"list subset", map[string]any{"b": map[string]any{"e": []any{int64(2)}}}, true},
		{"missing key", map[string]any{"z": int64(1)}, false},
		{"wrong value", map[string]any{"a": int64(2)}, false},
		{"empty map", map[string]any{}, true},
		{"scalar against map", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchValue(actual, tt.expected))
		})
	}
}

func TestNormalizeNumbers(t *testing.T) {
	assert.Equal(t, int64(1), normalize(1))
	assert.Equal(t, int64(2), normalize(2.0))
	assert.Equal(t, map[string]any{"type": "Ping", "n": int64(3)}, normalize(map[string]any{"type": "Ping", "n": 3}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains", Assertion{Type: AssertEmittedContains, Event: map[string]any{"type": "Document Update", "val": 2}}, ""},
		{"contains list subset", Assertion{Type: AssertEmittedContains, Event: map[string]any{"tags": []any{"b"}}}, ""},
		{"contains missing", Assertion{Type: AssertEmittedContains, Event: map[string]any{"type": "Pong"}}, "not emitted"},
		{"order", Assertion{Type: AssertEmittedOrder, Types: []string{"Document Processing Initiated", "Ping", "Document Update"}}, ""},
		{"order repeated", Assertion{Type: AssertEmittedOrder, Types: []string{"Document Update", "Document Update"}}, ""},
		{"order wrong", Assertion{Type: AssertEmittedOrder, Types: []string{"Ping", "Document Processing Initiated"}}, "no Document Processing Initiated after position 3"},
		{"count", Assertion{Type: AssertEmittedCount, EventType: "Document Update", Count: 2}, ""},
		{"count zero", Assertion{Type: AssertEmittedCount, EventType: "Pong", Count: 0}, ""},
		{"count wrong", Assertion{Type: AssertEmittedCount, EventType: "Ping", Count: 2}, "1 events"},
		{"state", Assertion{Type: AssertFinalState, Path: "/counter", Expect: 2}, ""},
		{"state subset", Assertion{Type: AssertFinalState, Path: "/nested", Expect: map[string]any{"list": []any{3}}}, ""},
		{"state absent", Assertion{Type: AssertFinalState, Path: "/missing"}, ""},
		{"state not absent", Assertion{Type: AssertFinalState, Path: "/counter"}, "to be absent"},
		{"state missing path", Assertion{Type: AssertFinalState, Path: "/missing", Expect: 1}, "path not found"},
		{"state mismatch", Assertion{Type: AssertFinalState, Path: "/counter", Expect: 3}, "Actual: 2"},
		{"unknown", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
			assert.Contains(t, errs[0], "assertions[0]")
		})
	}
}

func TestFinalStateWithoutDocument(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{{Type: AssertFinalState, Path: "/a", Expect: 1}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no final document")
}

func TestAssertionErrorListsEmittedEvents(t *testing.T) {
	err := &AssertionError{
		Type:     AssertEmittedCount,
		Expected: "2 events of type Ping",
		Actual:   "1 events",
		Emitted:  []*blue.Node{blue.MustFromValue(map[string]any{"type": "Ping"})},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: emitted_count")
	assert.Contains(t, msg, "Expected: 2 events of type Ping")
	assert.Contains(t, msg, `[1] {"type":"Ping"}`)
}

func TestCheckExpect(t *testing.T) {
	loop := fmt.Errorf("event 0: %w", &engine.RuntimeError{Code: engine.ErrCodeLoopDetected, Message: "loop at /#a"})
	gasUsed := int64(40)
	wrongGas := int64(41)

	tests := []struct {
		name    string
		result  func() *Result
		expect  *Expect
		wantErr []string
	}{
		{
			name:   "no expectations and no error",
			result: sampleResult,
		},
		{
			name:    "no expectations but an error",
			result:  func() *Result { r := NewResult(); r.Err = loop; return r },
			wantErr: []string{"unexpected error"},
		},
		{
			name:   "error by code",
			result: func() *Result { r := NewResult(); r.Err = loop; return r },
			expect: &Expect{Error: "LOOP_DETECTED"},
		},
		{
			name:   "error by message",
			result: func() *Result { r := NewResult(); r.Err = loop; return r },
			expect: &Expect{Error: "loop at /#a"},
		},
		{
			name:    "wrong error",
			result:  func() *Result { r := NewResult(); r.Err = loop; return r },
			expect:  &Expect{Error: "CYCLE_OVERFLOW"},
			wantErr: []string{"expected error CYCLE_OVERFLOW, got LOOP_DETECTED"},
		},
		{
			name:   "emitted types",
			result: sampleResult,
			expect: &Expect{EmittedTypes: []string{"Document Processing Initiated", "Document Update", "Ping", "Document Update"}},
		},
		{
			name:    "emitted types mismatch",
			result:  sampleResult,
			expect:  &Expect{EmittedTypes: []string{"Ping"}},
			wantErr: []string{"emitted types"},
		},
		{
			name:    "state sorted by path",
			result:  sampleResult,
			expect:  &Expect{State: map[string]any{"/z": 1, "/counter": 5}},
			wantErr: []string{"/counter = 5", "/z = 1"},
		},
		{
			name:   "gas used",
			result: func() *Result { r := sampleResult(); r.GasUsed = gasUsed; return r },
			expect: &Expect{GasUsed: &gasUsed},
		},
		{
			name:    "gas used mismatch",
			result:  func() *Result { r := sampleResult(); r.GasUsed = gasUsed; return r },
			expect:  &Expect{GasUsed: &wrongGas},
			wantErr: []string{"gas used: expected 41, got 40"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := checkExpect(tt.result(), tt.expect)
			require.Len(t, errs, len(tt.wantErr), "errors: %v", errs)
			for i, want := range tt.wantErr {
				assert.Contains(t, errs[i], want)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&engine.RuntimeError{Code: engine.ErrCodeCycleOverflow}, "CYCLE_OVERFLOW"},
		{fmt.Errorf("event 1: %w", &engine.GasBudgetExceededError{Budget: 1}), "GAS_BUDGET_EXCEEDED"},
		{&engine.EmbeddedDocumentModificationError{}, "EMBEDDED_DOCUMENT_MODIFICATION"},
		{&engine.PatchApplicationError{Cause: blue.ErrPathNotFound}, "PATCH_APPLICATION"},
		{errors.New("boom"), "ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err))
	}
}
