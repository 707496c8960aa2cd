package queue

import "sync"

// BlockingQueue guards the ring with a sync.Mutex and parks waiters on two
// condition variables, one for space and one for items.
//
// Waiting is left to the Go scheduler, so blocked callers cost no CPU. It is
// safe for any number of producers and consumers.
type BlockingQueue struct {
	mu       sync.Mutex
	hasSpace sync.Cond
	hasItems sync.Cond
	ring     ring
	closed   bool
}

// NewBlocking creates a BlockingQueue with the given capacity.
func NewBlocking(capacity int) (*BlockingQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newBlocking(capacity), nil
}

func newBlocking(capacity int) *BlockingQueue {
	q := &BlockingQueue{ring: newRing(capacity)}
	q.hasSpace.L = &q.mu
	q.hasItems.L = &q.mu
	return q
}

// Offer enqueues v if there is space. It never waits.
func (q *BlockingQueue) Offer(v int) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, ErrClosed
	}
	if q.ring.full() {
		return false, nil
	}
	q.ring.push(v)
	q.hasItems.Signal()
	return true, nil
}

// Put enqueues v, waiting on hasSpace while the queue is full.
func (q *BlockingQueue) Put(v int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.ring.full() && !q.closed {
		q.hasSpace.Wait()
	}
	if q.closed {
		return ErrClosed
	}
	q.ring.push(v)
	q.hasItems.Signal()
	return nil
}

// Poll dequeues the oldest item, or returns fallback if the queue is empty.
func (q *BlockingQueue) Poll(fallback int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ring.empty() {
		if q.closed {
			return fallback, ErrClosed
		}
		return fallback, nil
	}
	v := q.ring.pop()
	q.hasSpace.Signal()
	return v, nil
}

// Take dequeues the oldest item, waiting on hasItems while the queue is empty.
func (q *BlockingQueue) Take() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.ring.empty() && !q.closed {
		q.hasItems.Wait()
	}
	if q.ring.empty() {
		return 0, ErrClosed
	}
	v := q.ring.pop()
	q.hasSpace.Signal()
	return v, nil
}

// Close closes the queue and broadcasts on both conditions, since any number
// of producers and consumers may be waiting.
func (q *BlockingQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.hasSpace.Broadcast()
	q.hasItems.Broadcast()
}

// Len returns the number of buffered items.
func (q *BlockingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.size
}

// Cap returns the capacity of the queue.
func (q *BlockingQueue) Cap() int {
	return len(q.ring.slots)
}
