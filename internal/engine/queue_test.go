package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(depth int, seq int64, name string, id int64) *Task {
	return &Task{
		Key:          TaskKey{Depth: depth, Seq: seq, ContractName: name, ID: id},
		ContractName: name,
	}
}

func TestTaskQueue_PopsInKeyOrder(t *testing.T) {
	q := newTaskQueue()
	q.push(task(0, 1, "root", 1))
	q.push(task(2, 1, "deep", 2))
	q.push(task(1, 2, "mid-late", 3))
	q.push(task(1, 1, "mid", 4))

	var got []string
	for q.len() > 0 {
		got = append(got, q.pop().ContractName)
	}
	assert.Equal(t, []string{"deep", "mid", "mid-late", "root"}, got)
}

func TestTaskQueue_EmptyPopAndReset(t *testing.T) {
	q := newTaskQueue()
	assert.Nil(t, q.pop())

	q.push(task(0, 1, "a", 1))
	q.push(task(0, 1, "b", 2))
	require.Equal(t, 2, q.len())
	q.reset()
	assert.Equal(t, 0, q.len())
	assert.Nil(t, q.pop())
}
