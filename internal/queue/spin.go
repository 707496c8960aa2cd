package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SpinQueue guards the ring with a spin lock and busy-waits instead of
// parking. Put and Take burn a core while they wait, which pays off only when
// waits are shorter than a context switch.
//
// The spinning enqueue is Put. Offer makes one attempt under the lock and
// reports a full queue at once, so all kinds share the same Offer contract.
//
// It is safe for any number of producers and consumers.
type SpinQueue struct {
	spinCore
}

// NewSpin creates a SpinQueue with the given capacity.
func NewSpin(capacity int) (*SpinQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newSpin(capacity), nil
}

func newSpin(capacity int) *SpinQueue {
	return &SpinQueue{spinCore{ring: newRing(capacity)}}
}

// spinCore holds the hot state of the spin queues: the lock word, the closed
// flag and the ring. It is embedded with or without padding around it.
type spinCore struct {
	lock spinLock
	// closed is only set under lock, but may be read without it as a hint.
	closed atomix.Bool
	ring   ring
}

// Offer makes a single attempt to enqueue v.
func (q *spinCore) Offer(v int) (bool, error) {
	if q.closed.Load() {
		return false, ErrClosed
	}
	q.lock.lock()
	if q.closed.Load() {
		q.lock.unlock()
		return false, ErrClosed
	}
	if q.ring.full() {
		q.lock.unlock()
		return false, nil
	}
	q.ring.push(v)
	q.lock.unlock()
	return true, nil
}

// Put spins until there is space for v, or the queue is closed.
func (q *spinCore) Put(v int) error {
	sw := spin.Wait{}
	for !q.closed.Load() {
		q.lock.lock()
		if q.closed.Load() {
			q.lock.unlock()
			break
		}
		if !q.ring.full() {
			q.ring.push(v)
			q.lock.unlock()
			return nil
		}
		q.lock.unlock()
		sw.Once()
	}
	return ErrClosed
}

// Poll makes a single attempt to dequeue, returning fallback if empty.
func (q *spinCore) Poll(fallback int) (int, error) {
	q.lock.lock()
	defer q.lock.unlock()
	if q.ring.empty() {
		if q.closed.Load() {
			return fallback, ErrClosed
		}
		return fallback, nil
	}
	return q.ring.pop(), nil
}

// Take spins until an item is available, or the queue is closed and empty.
func (q *spinCore) Take() (int, error) {
	sw := spin.Wait{}
	for {
		q.lock.lock()
		if !q.ring.empty() {
			v := q.ring.pop()
			q.lock.unlock()
			return v, nil
		}
		closed := q.closed.Load()
		q.lock.unlock()
		if closed {
			return 0, ErrClosed
		}
		sw.Once()
	}
}

// Close closes the queue. Spinning callers see the flag on their next pass,
// so there is nobody to wake.
func (q *spinCore) Close() {
	q.lock.lock()
	q.closed.Store(true)
	q.lock.unlock()
}

// Len returns the number of buffered items.
func (q *spinCore) Len() int {
	q.lock.lock()
	n := q.ring.size
	q.lock.unlock()
	return n
}

// Cap returns the capacity of the queue.
func (q *spinCore) Cap() int {
	return len(q.ring.slots)
}
