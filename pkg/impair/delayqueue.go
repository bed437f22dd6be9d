package impair

import (
	"container/heap"
	"time"
)

// delayedFrame is one entry in the delay priority queue: a frame due for
// emission at dueAt.
type delayedFrame struct {
	frame []byte
	dueAt time.Time
	index int // heap index, maintained by container/heap
}

// delayQueue is a due-time min-heap with a soft capacity bound. Frames
// pushed past the bound are rejected by the caller (impair.Pipeline),
// which counts them as QueueDrops rather than blocking.
type delayQueue struct {
	items []*delayedFrame
	bound int
}

func newDelayQueue(bound int) *delayQueue {
	q := &delayQueue{bound: bound}
	heap.Init(q)
	return q
}

func (q *delayQueue) Len() int { return len(q.items) }

func (q *delayQueue) Less(i, j int) bool {
	return q.items[i].dueAt.Before(q.items[j].dueAt)
}

func (q *delayQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *delayQueue) Push(x any) {
	item := x.(*delayedFrame)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *delayQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return item
}

// full reports whether the queue has reached its soft bound.
func (q *delayQueue) full() bool {
	return len(q.items) >= q.bound
}

// peekDue pops and returns the earliest-due frame if it is already due,
// without blocking.
func (q *delayQueue) peekDue(now time.Time) (*delayedFrame, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	if q.items[0].dueAt.After(now) {
		return nil, false
	}
	return heap.Pop(q).(*delayedFrame), true
}

// add pushes a new delayed frame, then applies explicit reordering by
// exchanging its due time with the entry reorderGap slots before it in
// the heap's backing array, if one exists. Heap-array order is not
// due-time order, so that entry is not necessarily the one reorderGap
// places ahead in delivery order. This produces out-of-order delivery on
// top of whatever jitter already causes implicitly.
func (q *delayQueue) add(frame *delayedFrame, reorderGap int, doReorder bool) {
	heap.Push(q, frame)
	if !doReorder || reorderGap <= 0 {
		return
	}
	target := frame.index - reorderGap
	if target >= 0 && target < len(q.items) {
		frame.dueAt, q.items[target].dueAt = q.items[target].dueAt, frame.dueAt
		heap.Fix(q, frame.index)
		heap.Fix(q, target)
	}
}
