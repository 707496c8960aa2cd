package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/randomizedcoder/lwl-queues/internal/park"
)

// SPSCQueue is a SpinQueue that parks instead of spinning when it must wait.
//
// A producer that finds the queue full records its Parker in the producer
// slot, releases the lock and parks; the consumer that next frees a slot
// clears the record and unparks exactly that producer. Consumers wait on an
// empty queue the same way. The common, non-waiting path costs the same as
// SpinQueue.
//
// On Linux a Parker that has to sleep does so in a futex syscall, which holds
// its P until sysmon retakes it. A wait that outlasts the Parker's brief
// yielding can therefore cost tens of microseconds when GOMAXPROCS is small,
// against about one for the mutex and channel kinds.
//
// SPSC CONTRACT: at most one goroutine calls Offer/Put/PutWith and at most
// one calls Poll/Take/TakeWith, concurrently. This is NOT checked.
type SPSCQueue struct {
	spscCore
	producer *park.Parker
	consumer *park.Parker
}

// NewSPSC creates an SPSCQueue with the given capacity.
func NewSPSC(capacity int) (*SPSCQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newSPSC(capacity), nil
}

func newSPSC(capacity int) *SPSCQueue {
	return &SPSCQueue{spscCore: spscCore{ring: newRing(capacity)}}
}

// Offer enqueues v if there is space, waking a parked consumer.
func (q *SPSCQueue) Offer(v int) (bool, error) { return q.offer(v, &q.consumer) }

// Put enqueues v, parking while the queue is full.
func (q *SPSCQueue) Put(v int) error { return q.put(v, nil, &q.producer, &q.consumer) }

// PutWith is Put using the caller's own Parker, which it may keep across
// calls instead of borrowing one from the pool whenever it has to wait.
func (q *SPSCQueue) PutWith(v int, self *park.Parker) error {
	return q.put(v, self, &q.producer, &q.consumer)
}

// Poll dequeues the oldest item, or returns fallback if the queue is empty.
func (q *SPSCQueue) Poll(fallback int) (int, error) { return q.poll(fallback, &q.producer) }

// Take dequeues the oldest item, parking while the queue is empty.
func (q *SPSCQueue) Take() (int, error) { return q.take(nil, &q.producer, &q.consumer) }

// TakeWith is Take using the caller's own Parker.
func (q *SPSCQueue) TakeWith(self *park.Parker) (int, error) {
	return q.take(self, &q.producer, &q.consumer)
}

// Close closes the queue and unparks the waiting producer and consumer.
func (q *SPSCQueue) Close() { q.close(&q.producer, &q.consumer) }

// spscCore is the lock-guarded state of the SPSC queues. The waiting slots
// are passed in by the owner, which decides where they sit in memory.
// Slots are only read and written under lock; Park and Unpark happen after
// it is released.
type spscCore struct {
	lock   spinLock
	closed atomix.Bool
	ring   ring
}

func (q *spscCore) offer(v int, consumer **park.Parker) (bool, error) {
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
	waiter := *consumer
	*consumer = nil
	q.lock.unlock()
	waiter.Unpark()
	return true, nil
}

func (q *spscCore) put(v int, self *park.Parker, producer, consumer **park.Parker) error {
	borrowed := false
	defer func() {
		if borrowed {
			park.Release(self)
		}
	}()
	sw := spin.Wait{}
	for {
		q.lock.lock()
		if q.closed.Load() {
			q.lock.unlock()
			return ErrClosed
		}
		if !q.ring.full() {
			q.ring.push(v)
			waiter := *consumer
			*consumer = nil
			q.lock.unlock()
			waiter.Unpark()
			return nil
		}
		if *producer != nil {
			// Another producer is parked; only reachable if the contract is broken.
			q.lock.unlock()
			sw.Once()
			continue
		}
		if self == nil {
			self, borrowed = park.Get(), true
		}
		*producer = self
		q.lock.unlock()
		self.Park()
	}
}

func (q *spscCore) poll(fallback int, producer **park.Parker) (int, error) {
	q.lock.lock()
	if q.ring.empty() {
		closed := q.closed.Load()
		q.lock.unlock()
		if closed {
			return fallback, ErrClosed
		}
		return fallback, nil
	}
	v := q.ring.pop()
	waiter := *producer
	*producer = nil
	q.lock.unlock()
	waiter.Unpark()
	return v, nil
}

func (q *spscCore) take(self *park.Parker, producer, consumer **park.Parker) (int, error) {
	borrowed := false
	defer func() {
		if borrowed {
			park.Release(self)
		}
	}()
	sw := spin.Wait{}
	for {
		q.lock.lock()
		if !q.ring.empty() {
			v := q.ring.pop()
			waiter := *producer
			*producer = nil
			q.lock.unlock()
			waiter.Unpark()
			return v, nil
		}
		if q.closed.Load() {
			q.lock.unlock()
			return 0, ErrClosed
		}
		if *consumer != nil {
			q.lock.unlock()
			sw.Once()
			continue
		}
		if self == nil {
			self, borrowed = park.Get(), true
		}
		*consumer = self
		q.lock.unlock()
		self.Park()
	}
}

func (q *spscCore) close(producer, consumer **park.Parker) {
	q.lock.lock()
	if q.closed.Load() {
		q.lock.unlock()
		return
	}
	q.closed.Store(true)
	p, c := *producer, *consumer
	*producer, *consumer = nil, nil
	q.lock.unlock()
	p.Unpark()
	c.Unpark()
}

// Len returns the number of buffered items.
func (q *spscCore) Len() int {
	q.lock.lock()
	n := q.ring.size
	q.lock.unlock()
	return n
}

// Cap returns the capacity of the queue.
func (q *spscCore) Cap() int {
	return len(q.ring.slots)
}
