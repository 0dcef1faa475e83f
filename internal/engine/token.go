package engine

import (
	"sync"

	"github.com/google/uuid"
)

// RunTokenGenerator names each Initialize or ProcessEvents call. The token
// is attached to every log line of the call as "run".
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-sortable UUIDv7 run tokens, so log lines
// of consecutive runs sort in call order.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out predetermined tokens in order and then repeats
// the last one. Tests use it to keep log output stable.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator returns a generator over tokens. With no tokens it
// always returns "run".
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	if len(tokens) == 0 {
		tokens = []string{"run"}
	}
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	token := g.tokens[g.idx]
	if g.idx < len(g.tokens)-1 {
		g.idx++
	}
	return token
}
