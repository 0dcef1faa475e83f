package contracts

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/bluedoc/internal/blue"
)

// Decoder validates a contract or payload node against a shape and
// decodes it into a Go struct. Processors receive one per contract type.
type Decoder interface {
	Decode(n *blue.Node, out any) error
}

// cue.Context is not safe for concurrent use; every schema shares one
// context guarded by cueMu.
var (
	cueMu  sync.Mutex
	cueCtx = cuecontext.New()
)

// Schema is a CUE shape for one contract or event type.
type Schema struct {
	name  string
	value cue.Value
}

// CompileSchema compiles CUE source describing the payload shape of name.
func CompileSchema(name, src string) (*Schema, error) {
	cueMu.Lock()
	defer cueMu.Unlock()

	v := cueCtx.CompileString(src, cue.Filename(name+".cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, formatCUEError(err))
	}
	return &Schema{name: name, value: v}, nil
}

// MustCompileSchema panics on invalid CUE. Used for the static schema set.
func MustCompileSchema(name, src string) *Schema {
	s, err := CompileSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the type name the schema describes.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks n against the schema.
func (s *Schema) Validate(n *blue.Node) error {
	_, err := s.unify(n)
	return err
}

// Decode validates n and decodes the unified value into out using json
// field tags.
func (s *Schema) Decode(n *blue.Node, out any) error {
	u, err := s.unify(n)
	if err != nil {
		return err
	}
	cueMu.Lock()
	defer cueMu.Unlock()
	if err := u.Decode(out); err != nil {
		return &SchemaError{Schema: s.name, Message: formatCUEError(err).Error()}
	}
	return nil
}

func (s *Schema) unify(n *blue.Node) (cue.Value, error) {
	data, ok := blue.ToValue(n).(map[string]any)
	if !ok {
		return cue.Value{}, &SchemaError{Schema: s.name, Message: "expected an object"}
	}

	cueMu.Lock()
	defer cueMu.Unlock()
	u := s.value.Unify(cueCtx.Encode(data))
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, &SchemaError{Schema: s.name, Message: formatCUEError(err).Error()}
	}
	return u, nil
}

// SchemaError reports a node that does not fit its contract shape.
type SchemaError struct {
	Schema  string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Schema, e.Message)
}

// formatCUEError flattens a CUE error list into one line per error.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) <= 1 {
		return err
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
