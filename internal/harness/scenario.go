package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bluedoc/internal/blue"
)

// Scenario is a document, the events fed to it, and what must come out.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// RunToken names both engine calls in logs. Defaults to
	// "scenario-<name>".
	RunToken string `yaml:"run_token,omitempty"`

	// GasBudget, when set, limits each engine call.
	GasBudget *int64 `yaml:"gas_budget,omitempty"`

	Document map[string]any `yaml:"document"`
	Events   []any          `yaml:"events,omitempty"`

	Expect     *Expect     `yaml:"expect,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect holds the whole-run expectations.
type Expect struct {
	// Error is an error code such as LOOP_DETECTED, or a message substring.
	// Without it any engine error fails the scenario.
	Error string `yaml:"error,omitempty"`

	// EmittedTypes must equal the type names of all emitted events.
	EmittedTypes []string `yaml:"emitted_types,omitempty"`

	// State maps JSON pointers to expected values.
	State map[string]any `yaml:"state,omitempty"`

	GasUsed *int64 `yaml:"gas_used,omitempty"`
}

// Assertion is a single check on the emitted events or the final state.
type Assertion struct {
	// Type is one of emitted_contains, emitted_order, emitted_count and
	// final_state.
	Type string `yaml:"type"`

	// Event is the pattern for emitted_contains.
	Event map[string]any `yaml:"event,omitempty"`

	// Types is the expected order for emitted_order. Other events may
	// appear in between.
	Types []string `yaml:"types,omitempty"`

	// EventType and Count drive emitted_count.
	EventType string `yaml:"event_type,omitempty"`
	Count     int    `yaml:"count,omitempty"`

	// Path and Expect drive final_state. A nil Expect asserts absence.
	Path   string `yaml:"path,omitempty"`
	Expect any    `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertEmittedContains = "emitted_contains"
	AssertEmittedOrder    = "emitted_order"
	AssertEmittedCount    = "emitted_count"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarioDir loads every *.yaml file in dir, sorted by file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == nil {
		return fmt.Errorf("document is required")
	}
	if _, err := blue.FromValue(s.Document); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	for i, e := range s.Events {
		if e == nil {
			return fmt.Errorf("events[%d]: event is empty", i)
		}
		if _, err := blue.FromValue(e); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	if s.GasBudget != nil && *s.GasBudget < 0 {
		return fmt.Errorf("gas_budget must be non-negative")
	}
	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEmittedContains:
		if len(a.Event) == 0 {
			return fmt.Errorf("assertions[%d]: event is required for %s", index, a.Type)
		}
	case AssertEmittedOrder:
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for %s", index, a.Type)
		}
	case AssertEmittedCount:
		if a.EventType == "" {
			return fmt.Errorf("assertions[%d]: event_type is required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFinalState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
