// Package queue provides the dispatch-side data structures of the engine:
// the priority-ordered ready queue, the index of completed dependencies,
// and the waiter table that parks dependency-blocked tasks until their
// prerequisites complete.
//
// None of the types in this package synchronize internally. They are owned
// and guarded by the engine's dispatcher, which is the single writer.
package queue

import "container/heap"

// Item is one ready-queue entry. Entries are intentionally small: the queue
// holds task identity and ordering keys only, never the task record itself.
// Entries for tasks that have since been cancelled are skipped lazily by
// the dispatcher on pop.
type Item struct {
	ID       string
	Priority int
	Seq      uint64
}

// Ready orders items by priority descending, then by sequence ascending
// (FIFO within a priority band).
type Ready struct {
	items readyHeap
}

// NewReady returns an empty ready queue.
func NewReady() *Ready {
	return &Ready{}
}

// Push inserts an entry.
func (r *Ready) Push(it Item) {
	heap.Push(&r.items, it)
}

// Pop removes and returns the highest-priority entry, or ok=false when the
// queue is empty.
func (r *Ready) Pop() (Item, bool) {
	if len(r.items) == 0 {
		return Item{}, false
	}
	it := heap.Pop(&r.items).(Item)
	return it, true
}

// Len returns the number of queued entries, including stale entries whose
// task has already reached a terminal state.
func (r *Ready) Len() int {
	return len(r.items)
}

type readyHeap []Item

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) {
	*h = append(*h, x.(Item))
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
