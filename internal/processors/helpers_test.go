package processors

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bluedoc/internal/blue"
	"github.com/roach88/bluedoc/internal/contracts"
	"github.com/roach88/bluedoc/internal/engine"
	"github.com/roach88/bluedoc/internal/expr"
)

func newEngine(t *testing.T, lang *blue.Blue, opts ...engine.Option) *engine.Engine {
	t.Helper()
	ev, err := expr.New()
	require.NoError(t, err)
	base := []engine.Option{
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunTokens(engine.NewFixedGenerator("proc-test")),
		engine.WithTracing(true),
		engine.WithProcessors(Defaults(ev)...),
	}
	e, err := engine.New(lang, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func parseDoc(t *testing.T, src string) *blue.Node {
	t.Helper()
	doc, err := blue.ParseYAML([]byte(src))
	require.NoError(t, err)
	return doc
}

// initialized parses src and runs Initialize on it.
func initialized(t *testing.T, e *engine.Engine, src string) *blue.Node {
	t.Helper()
	res, err := e.Initialize(context.Background(), parseDoc(t, src))
	require.NoError(t, err)
	return res.State
}

func entry(timeline string, message any) *blue.Node {
	var msg *blue.Node
	if message != nil {
		msg = blue.MustFromValue(message)
	}
	return contracts.NewTimelineEntry(timeline, msg)
}

func request(op string, req any) *blue.Node {
	return entry("alice", contracts.NewOperationRequest(op, blue.MustFromValue(req)))
}

func typeNames(nodes []*blue.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.TypeName()
	}
	return out
}

func countType(nodes []*blue.Node, name string) int {
	n := 0
	for _, node := range nodes {
		if node.TypeName() == name {
			n++
		}
	}
	return n
}
