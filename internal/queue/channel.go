package queue

import "sync"

// ChannelQueue wraps a buffered channel as a Queue.
//
// This is the standard library approach, kept as the reference point for the
// other kinds. A second channel, closed by Close, releases blocked callers.
//
// A Put racing with Close may still enqueue after Close has started; once
// Close has returned, every Offer and Put fails.
type ChannelQueue struct {
	ch        chan int
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a ChannelQueue with the specified buffer size.
func NewChannel(capacity int) (*ChannelQueue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	return newChannel(capacity), nil
}

func newChannel(capacity int) *ChannelQueue {
	return &ChannelQueue{
		ch:   make(chan int, capacity),
		done: make(chan struct{}),
	}
}

func (q *ChannelQueue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Offer adds an item to the queue.
// Returns false if the queue is full (non-blocking).
func (q *ChannelQueue) Offer(v int) (bool, error) {
	if q.isClosed() {
		return false, ErrClosed
	}
	select {
	case q.ch <- v:
		return true, nil
	default:
		return false, nil
	}
}

// Put adds an item to the queue, blocking while it is full.
func (q *ChannelQueue) Put(v int) error {
	if q.isClosed() {
		return ErrClosed
	}
	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

// Poll removes and returns an item from the queue.
// Returns fallback if the queue is empty (non-blocking).
func (q *ChannelQueue) Poll(fallback int) (int, error) {
	select {
	case v := <-q.ch:
		return v, nil
	default:
	}
	if q.isClosed() {
		return fallback, ErrClosed
	}
	return fallback, nil
}

// Take removes and returns an item from the queue, blocking while it is empty.
func (q *ChannelQueue) Take() (int, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-q.done:
	}
	// Closed: drain what is left before reporting it.
	select {
	case v := <-q.ch:
		return v, nil
	default:
		return 0, ErrClosed
	}
}

// Close releases every blocked caller. Safe to call multiple times.
func (q *ChannelQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Len returns the current number of items in the queue.
func (q *ChannelQueue) Len() int {
	return len(q.ch)
}

// Cap returns the capacity of the queue.
func (q *ChannelQueue) Cap() int {
	return cap(q.ch)
}
