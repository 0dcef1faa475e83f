package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskKey_Compare(t *testing.T) {
	base := TaskKey{Depth: 1, Seq: 5, TypePriority: 2, Order: 0, ContractName: "b", ID: 10}

	tests := []struct {
		name  string
		other TaskKey
		want  int
	}{
		{"equal", base, 0},
		{"deeper runs first", TaskKey{Depth: 2, Seq: 99, TypePriority: 99, ContractName: "z", ID: 99}, 1},
		{"shallower runs later", TaskKey{Depth: 0, Seq: 1, TypePriority: 0, ContractName: "a", ID: 1}, -1},
		{"earlier event first", TaskKey{Depth: 1, Seq: 4, TypePriority: 9, ContractName: "z", ID: 99}, 1},
		{"lower priority first", TaskKey{Depth: 1, Seq: 5, TypePriority: 1, ContractName: "z", ID: 99}, 1},
		{"lower order first", TaskKey{Depth: 1, Seq: 5, TypePriority: 2, Order: -0.5, ContractName: "z", ID: 99}, 1},
		{"name breaks ties", TaskKey{Depth: 1, Seq: 5, TypePriority: 2, ContractName: "a", ID: 99}, 1},
		{"id is last", TaskKey{Depth: 1, Seq: 5, TypePriority: 2, ContractName: "b", ID: 11}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Compare(tt.other))
			assert.Equal(t, -tt.want, tt.other.Compare(base))
		})
	}
}
