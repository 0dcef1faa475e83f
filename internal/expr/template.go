package expr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/bluedoc/internal/blue"
)

var (
	wholeExpr = regexp.MustCompile(`^\$\{([\s\S]*)\}$`)
	anyExpr   = regexp.MustCompile(`\$\{([\s\S]+?)\}`)
)

// Charger is told the cost of every evaluation made while resolving.
// Returning an error aborts the resolution.
type Charger func(cost uint64) error

// IsExpression reports whether s is exactly one "${...}" placeholder.
func IsExpression(s string) bool {
	return wholeExpr.MatchString(s) && strings.Index(s, "${") == strings.LastIndex(s, "${")
}

// ContainsExpression reports whether s holds at least one placeholder.
func ContainsExpression(s string) bool {
	return anyExpr.MatchString(s) || wholeExpr.MatchString(s)
}

// ExtractExpression returns the source inside a whole-string placeholder.
func ExtractExpression(s string) (string, error) {
	if !IsExpression(s) {
		return "", fmt.Errorf("not an expression: %q", s)
	}
	return s[2 : len(s)-1], nil
}

// ResolveTemplate replaces every placeholder in tmpl with the string form
// of its result. Null results become empty strings.
func (e *Evaluator) ResolveTemplate(ctx context.Context, tmpl string, vars Vars, charge Charger) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range anyExpr.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(tmpl[last:m[0]])
		res, err := e.evalCharged(ctx, tmpl[m[2]:m[3]], vars, charge)
		if err != nil {
			return "", err
		}
		if res.Value != nil {
			b.WriteString(fmt.Sprint(res.Value))
		}
		last = m[1]
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// ResolveNode returns a copy of n with every string value resolved: a
// whole-string placeholder is replaced by its result converted to a node,
// any other placeholders are substituted as text. n is not modified.
func (e *Evaluator) ResolveNode(ctx context.Context, n *blue.Node, vars Vars, charge Charger) (*blue.Node, error) {
	if n == nil {
		return nil, nil
	}
	if s, ok := n.StringValue(); ok {
		switch {
		case IsExpression(s):
			src, _ := ExtractExpression(s)
			res, err := e.evalCharged(ctx, src, vars, charge)
			if err != nil {
				return nil, err
			}
			return blue.FromValue(res.Value)
		case ContainsExpression(s):
			out, err := e.ResolveTemplate(ctx, s, vars, charge)
			if err != nil {
				return nil, err
			}
			return blue.NewValue(out), nil
		}
		return n, nil
	}

	out := n.Clone()
	for i, item := range out.Items {
		r, err := e.ResolveNode(ctx, item, vars, charge)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out.Items[i] = r
	}
	for _, key := range out.PropertyNames() {
		r, err := e.ResolveNode(ctx, out.Properties[key], vars, charge)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out.Properties[key] = r
	}
	return out, nil
}

// ResolveString resolves a plain string: a whole placeholder yields its
// result, anything else is treated as a template.
func (e *Evaluator) ResolveString(ctx context.Context, s string, vars Vars, charge Charger) (any, error) {
	if IsExpression(s) {
		src, _ := ExtractExpression(s)
		res, err := e.evalCharged(ctx, src, vars, charge)
		if err != nil {
			return nil, err
		}
		return res.Value, nil
	}
	if ContainsExpression(s) {
		return e.ResolveTemplate(ctx, s, vars, charge)
	}
	return s, nil
}

func (e *Evaluator) evalCharged(ctx context.Context, src string, vars Vars, charge Charger) (Result, error) {
	res, err := e.Eval(ctx, src, vars)
	if charge != nil {
		if cerr := charge(res.Cost); cerr != nil {
			return Result{}, cerr
		}
	}
	return res, err
}
