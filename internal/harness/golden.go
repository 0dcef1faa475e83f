package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bluedoc/internal/blue"
)

// Snapshot is what a golden file records for one scenario.
type Snapshot struct {
	Scenario string
	Trace    []TraceEvent
	Emitted  []*blue.Node
	State    *blue.Node
	Error    string
}

// NewSnapshot captures a result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		Scenario: name,
		Trace:    result.Trace,
		Emitted:  result.Emitted,
		State:    result.State,
		Error:    ErrorCode(result.Err),
	}
}

// canonicalMap converts the snapshot for canonical JSON. Contract
// subtrees are left out of the state: they carry checkpoint hashes that
// change whenever an event's encoding does.
func (s Snapshot) canonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = e.canonical()
	}
	emitted := make([]any, len(s.Emitted))
	for i, e := range s.Emitted {
		emitted[i] = blue.ToValue(e)
	}

	out := map[string]any{
		"scenario": s.Scenario,
		"trace":    trace,
		"emitted":  emitted,
	}
	if s.State != nil {
		out["state"] = blue.ToValue(withoutContracts(s.State))
	}
	if s.Error != "" {
		out["error"] = s.Error
	}
	return out
}

// Marshal renders the snapshot as canonical JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := blue.MarshalCanonicalValue(s.canonicalMap())
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.Scenario, err)
	}
	return data, nil
}

// withoutContracts copies n with every contracts map removed.
func withoutContracts(n *blue.Node) *blue.Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Items != nil {
		cp.Items = make([]*blue.Node, len(n.Items))
		for i, it := range n.Items {
			cp.Items[i] = withoutContracts(it)
		}
	}
	if n.Properties != nil {
		cp.Properties = make(map[string]*blue.Node, len(n.Properties))
		for k, v := range n.Properties {
			if k == blue.ContractsKey {
				continue
			}
			cp.Properties[k] = withoutContracts(v)
		}
	}
	return &cp
}

// RunWithGolden executes a scenario, fails the test if its expectations
// do not hold, and compares its snapshot with
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
