package comm

import (
	"container/heap"

	"github.com/sabouaram/tcpcomm/protocol"
)

// outQueue is a priority queue of protocol.Prepared messages: higher
// Priority drains first, and among equal priorities the one with the
// smaller Seq (enqueued earlier) drains first — container/heap is not
// stable on its own, so Seq is folded into the comparator to guarantee
// FIFO within a priority band, per spec §3 and §9 ("stable ordering").
type outQueue struct {
	items []*protocol.Prepared
}

func (q *outQueue) Len() int { return len(q.items) }

func (q *outQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq < b.Seq
}

func (q *outQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *outQueue) Push(x any) { q.items = append(q.items, x.(*protocol.Prepared)) }

func (q *outQueue) Pop() any {
	n := len(q.items)
	it := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return it
}

func newOutQueue() *outQueue {
	q := &outQueue{}
	heap.Init(q)
	return q
}

func (q *outQueue) push(p *protocol.Prepared) { heap.Push(q, p) }

func (q *outQueue) popTop() *protocol.Prepared {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*protocol.Prepared)
}
