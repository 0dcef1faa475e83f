package engine

import "container/heap"

// taskQueue is a binary min-heap of tasks ordered by TaskKey.
type taskQueue struct {
	h taskHeap
}

func newTaskQueue() *taskQueue {
	return &taskQueue{h: make(taskHeap, 0, 64)}
}

func (q *taskQueue) push(t *Task) {
	heap.Push(&q.h, t)
}

// pop removes the smallest task. It returns nil on an empty queue.
func (q *taskQueue) pop() *Task {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*Task)
}

func (q *taskQueue) len() int {
	return len(q.h)
}

func (q *taskQueue) reset() {
	clear(q.h)
	q.h = q.h[:0]
}

type taskHeap []*Task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].Key.Compare(h[j].Key) < 0 }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
