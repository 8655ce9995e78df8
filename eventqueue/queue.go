// Package eventqueue implements the simulator's single logical clock: a
// min-heap of events ordered by simulated time, with ties broken by
// insertion order so replay of a seeded run is deterministic.
package eventqueue

import "container/heap"

// Kind distinguishes the two event types the simulator drives.
type Kind string

const (
	CreateBlock  Kind = "create_block"
	ReceiveBlock Kind = "receive_block"
)

// Event is one entry on the queue. Block and Node are opaque payloads
// (*core.Block, *core.Node) passed through by the caller; the queue itself
// has no notion of block or node semantics.
type Event struct {
	Kind  Kind
	Time  float64
	Block any
	Node  any

	seq int // insertion order, used to break Time ties FIFO
}

// Queue is a min-heap of Events ordered by (Time, seq).
type Queue struct {
	items  eventHeap
	nextSeq int
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

// Push inserts ev, stamping it with the next insertion sequence number.
func (q *Queue) Push(ev Event) {
	ev.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.items, ev)
}

// PopMin removes and returns the event with the smallest (Time, seq). The
// second return value is false if the queue is empty.
func (q *Queue) PopMin() (Event, bool) {
	if q.items.Len() == 0 {
		return Event{}, false
	}
	ev := heap.Pop(&q.items).(Event)
	return ev, true
}

// IsEmpty reports whether the queue has no pending events.
func (q *Queue) IsEmpty() bool {
	return q.items.Len() == 0
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return q.items.Len()
}

// eventHeap implements container/heap.Interface over a slice of Events.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	*h = old[:n-1]
	return ev
}
