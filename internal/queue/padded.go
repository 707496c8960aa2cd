package queue

import "github.com/randomizedcoder/lwl-queues/internal/park"

// PaddedSpinQueue is a SpinQueue whose hot state (lock word, closed flag and
// ring indices) is fenced by a full pad on each side, so no other allocation
// can share its cache lines. The slots are padded the same way.
//
// Behaviour is identical to SpinQueue.
type PaddedSpinQueue struct {
	_ pad
	spinCore
	_ pad
}

// NewPaddedSpin creates a PaddedSpinQueue with the given capacity.
func NewPaddedSpin(capacity int) (*PaddedSpinQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newPaddedSpin(capacity), nil
}

func newPaddedSpin(capacity int) *PaddedSpinQueue {
	return &PaddedSpinQueue{spinCore: spinCore{ring: newPaddedRing(capacity)}}
}

// PaddedSPSCQueue is an SPSCQueue laid out so that:
//   - the lock word and ring state are fenced off from other allocations;
//   - the producer's waiting slot and the consumer's waiting slot sit at
//     least a cache line apart from each other and from the hot state.
//
// Behaviour, including the SPSC contract, is identical to SPSCQueue.
type PaddedSPSCQueue struct {
	_ pad
	spscCore
	_        pad
	producer *park.Parker
	_        pad
	consumer *park.Parker
	_        pad
}

// NewPaddedSPSC creates a PaddedSPSCQueue with the given capacity.
func NewPaddedSPSC(capacity int) (*PaddedSPSCQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newPaddedSPSC(capacity), nil
}

func newPaddedSPSC(capacity int) *PaddedSPSCQueue {
	return &PaddedSPSCQueue{spscCore: spscCore{ring: newPaddedRing(capacity)}}
}

// Offer enqueues v if there is space, waking a parked consumer.
func (q *PaddedSPSCQueue) Offer(v int) (bool, error) { return q.offer(v, &q.consumer) }

// Put enqueues v, parking while the queue is full.
func (q *PaddedSPSCQueue) Put(v int) error { return q.put(v, nil, &q.producer, &q.consumer) }

// PutWith is Put using the caller's own Parker.
func (q *PaddedSPSCQueue) PutWith(v int, self *park.Parker) error {
	return q.put(v, self, &q.producer, &q.consumer)
}

// Poll dequeues the oldest item, or returns fallback if the queue is empty.
func (q *PaddedSPSCQueue) Poll(fallback int) (int, error) { return q.poll(fallback, &q.producer) }

// Take dequeues the oldest item, parking while the queue is empty.
func (q *PaddedSPSCQueue) Take() (int, error) { return q.take(nil, &q.producer, &q.consumer) }

// TakeWith is Take using the caller's own Parker.
func (q *PaddedSPSCQueue) TakeWith(self *park.Parker) (int, error) {
	return q.take(self, &q.producer, &q.consumer)
}

// Close closes the queue and unparks the waiting producer and consumer.
func (q *PaddedSPSCQueue) Close() { q.close(&q.producer, &q.consumer) }
