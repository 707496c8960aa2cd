// Package queue provides fixed-capacity FIFO queues that differ only in how
// they synchronize concurrent producers and consumers.
//
// This package offers the following implementations of the Queue interface:
//   - BlockingQueue: sync.Mutex with two condition variables
//   - SpinQueue: a CAS lock word acquired by busy-waiting
//   - SPSCQueue: the spin lock, plus direct park/unpark of a blocked goroutine
//   - PaddedSpinQueue, PaddedSPSCQueue: cache-line padded layouts of the above
//   - ChannelQueue: a buffered channel, as a baseline
//
// Every implementation stores a single machine word per slot and never grows.
//
// # SPSC Safety (IMPORTANT)
//
// SPSCQueue and PaddedSPSCQueue are Single-Producer Single-Consumer queues.
// At most ONE goroutine may call Offer/Put and at most ONE goroutine may call
// Poll/Take at any time. Each role has a single waiting slot, so a second
// waiting producer (or consumer) would be lost. This is NOT checked.
//
// # Close
//
// After Close, Offer and Put fail with ErrClosed. Poll and Take keep returning
// buffered items until the queue is empty, then fail with ErrClosed. Close
// wakes every goroutine blocked inside the queue and is idempotent.
package queue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by operations on a closed queue. It is the normal
	// termination signal for a producer or consumer loop.
	ErrClosed = errors.New("queue: closed")

	// ErrInvalidCapacity is returned by constructors given a capacity < 1.
	ErrInvalidCapacity = errors.New("queue: capacity must be positive")
)

// Queue is a bounded FIFO queue of machine words.
type Queue interface {
	// Offer enqueues v if there is space, without blocking.
	// Returns false if the queue is full.
	Offer(v int) (bool, error)

	// Put enqueues v, waiting for space if necessary.
	// It can only be released by space freeing up or by Close.
	Put(v int) error

	// Poll dequeues the oldest item without blocking.
	// Returns fallback if the queue is empty.
	Poll(fallback int) (int, error)

	// Take dequeues the oldest item, waiting for one if necessary.
	// It can only be released by an item arriving or by Close.
	Take() (int, error)

	// Close closes the queue and wakes every blocked caller.
	Close()

	// Len returns the number of buffered items.
	// This is a snapshot and may be stale by the time it returns.
	Len() int

	// Cap returns the fixed capacity of the queue.
	Cap() int
}

// Kind selects the synchronization strategy of a queue.
type Kind int

// Kinds are ordered the same way as the comparison tables of the lwl command.
const (
	KindLock Kind = iota
	KindSpin
	KindSPSC
	KindPaddedSpin
	KindPaddedSPSC
	KindChannel
)

var kindNames = [...]string{
	KindLock:       "lock",
	KindSpin:       "spin",
	KindSPSC:       "spsc",
	KindPaddedSpin: "padded-spin",
	KindPaddedSPSC: "padded-spsc",
	KindChannel:    "channel",
}

// Kinds returns every Kind, in declaration order.
func Kinds() []Kind {
	return []Kind{KindLock, KindSpin, KindSPSC, KindPaddedSpin, KindPaddedSPSC, KindChannel}
}

// String returns the name of the kind, as accepted by ParseKind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MultiProducer reports whether more than one goroutine may use each side of
// the queue concurrently.
func (k Kind) MultiProducer() bool {
	return k != KindSPSC && k != KindPaddedSPSC
}

// ParseKind returns the Kind with the given name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("queue: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// New creates an empty, open queue of the given kind and capacity.
func New(kind Kind, capacity int) (Queue, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}
	switch kind {
	case KindLock:
		return newBlocking(capacity), nil
	case KindSpin:
		return newSpin(capacity), nil
	case KindSPSC:
		return newSPSC(capacity), nil
	case KindPaddedSpin:
		return newPaddedSpin(capacity), nil
	case KindPaddedSPSC:
		return newPaddedSPSC(capacity), nil
	case KindChannel:
		return newChannel(capacity), nil
	default:
		return nil, fmt.Errorf("queue: unknown kind %v", kind)
	}
}

func checkCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return nil
}
