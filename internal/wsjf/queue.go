package wsjf

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
)

// Item is the QueueItem tuple from spec §3: a priority-ordered record plus
// everything the sender and monitor need to act on it.
type Item struct {
	Priority float64
	Seq      uint64
	Payload  []byte
	Session  *Session
	Tag      string
	CID      string
}

// itemHeap is the min-heap backing Queue, ordered exactly like the
// teacher's shaperHeap: by (priority, seq) so FIFO among ties falls out of
// the heap ordering itself.
type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is the min-ordered priority queue from spec §4.3: enqueue is
// nonblocking, dequeue blocks until an item exists. seq is a process-wide
// strictly increasing FIFO tiebreaker, per spec §3.
type Queue struct {
	mu     sync.Mutex
	h      itemHeap
	notify chan struct{}
	seq    atomic.Uint64
}

// NewQueue builds an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// NextSeq atomically allocates the next FIFO tiebreaker. Callers use the
// same value again when requeuing an item after a backend write failure,
// per spec §4.3's "requeue with identical (priority, seq)".
func (q *Queue) NextSeq() uint64 {
	return q.seq.Add(1)
}

// Push enqueues item without blocking.
func (q *Queue) Push(item *Item) {
	q.mu.Lock()
	heap.Push(&q.h, item)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Pop blocks until an item is available or ctx is cancelled.
func (q *Queue) Pop(ctx context.Context) (*Item, error) {
	for {
		q.mu.Lock()
		if len(q.h) > 0 {
			item := heap.Pop(&q.h).(*Item)
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
