package processors

import (
	"reflect"

	"github.com/roach88/bluedoc/internal/blue"
)

// deepContains reports whether every entry of subset is present in source.
// Maps match by key subset, lists as order-insensitive subsets, and any
// other value by equality.
func deepContains(source, subset any) bool {
	switch sub := subset.(type) {
	case map[string]any:
		src, ok := source.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range sub {
			sv, present := src[k]
			if !present || !deepContains(sv, v) {
				return false
			}
		}
		return true
	case []any:
		src, ok := source.([]any)
		if !ok {
			return false
		}
		for _, want := range sub {
			found := false
			for _, have := range src {
				if deepContains(have, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(source, subset)
}

// nodeContains applies deepContains to the simple forms of two nodes.
func nodeContains(source, pattern *blue.Node) bool {
	return deepContains(blue.ToValue(source), blue.ToValue(pattern))
}
