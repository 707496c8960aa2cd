package combined

import (
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
	"code.hybscloud.com/spin"
	ring "github.com/randomizedcoder/go-lock-free-ring"

	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

// Pipe moves items from producers to consumers, waiting when it must.
// Every queue.Queue is a Pipe.
type Pipe interface {
	Put(v int) error
	Take() (int, error)
	Close()
}

// Names of the outside queues accepted by NewPipe, besides the queue kinds.
const (
	PipeLFQ         = "lfq"
	PipeShardedRing = "sharded-ring"
)

// PipeNames lists every name NewPipe accepts.
func PipeNames() []string {
	names := make([]string, 0, len(queue.Kinds())+2)
	for _, k := range queue.Kinds() {
		names = append(names, k.String())
	}
	return append(names, PipeLFQ, PipeShardedRing)
}

// NewPipe creates the named pipe: a queue kind or one of the outside queues.
func NewPipe(name string, capacity int) (Pipe, error) {
	switch name {
	case PipeLFQ:
		p, err := NewLFQ(capacity)
		if err != nil {
			return nil, err
		}
		return p, nil
	case PipeShardedRing:
		p, err := NewShardedRing(capacity, 1)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	kind, err := queue.ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("combined: unknown pipe %q", name)
	}
	return queue.New(kind, capacity)
}

// LFQ adapts lfq.SPSC. It is single-producer single-consumer.
type LFQ struct {
	q      *lfq.SPSC[int]
	closed atomix.Bool
}

// NewLFQ creates an LFQ holding at least capacity items. lfq rounds the
// capacity up to a power of two, and to at least 2.
func NewLFQ(capacity int) (*LFQ, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", queue.ErrInvalidCapacity, capacity)
	}
	return &LFQ{q: lfq.NewSPSC[int](max(capacity, 2))}, nil
}

// Put spins until v is enqueued or the pipe is closed.
func (p *LFQ) Put(v int) error {
	sw := spin.Wait{}
	for !p.closed.Load() {
		err := p.q.Enqueue(&v)
		if err == nil {
			return nil
		}
		if !errors.Is(err, lfq.ErrWouldBlock) {
			return err
		}
		sw.Once()
	}
	return queue.ErrClosed
}

// Take spins until an item is dequeued, or the pipe is closed and empty.
func (p *LFQ) Take() (int, error) {
	sw := spin.Wait{}
	for {
		// Read the flag first: an item enqueued before Close is then
		// guaranteed to be seen by the Dequeue that follows.
		closed := p.closed.Load()
		v, err := p.q.Dequeue()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, lfq.ErrWouldBlock) {
			return 0, err
		}
		if closed {
			return 0, queue.ErrClosed
		}
		sw.Once()
	}
}

// Close makes Put fail; Take fails once the buffered items are gone.
func (p *LFQ) Close() {
	p.closed.Store(true)
}

// Cap returns the rounded capacity.
func (p *LFQ) Cap() int {
	return p.q.Cap()
}

// ShardedRing adapts go-lock-free-ring's ShardedRing. It takes any number of
// producers, each writing to the shard picked by its producer id, and a single
// consumer.
type ShardedRing struct {
	r      *ring.ShardedRing
	closed atomix.Bool
}

// NewShardedRing creates a ShardedRing of the given total capacity split over
// shards. The ring may reject capacities it cannot split evenly.
func NewShardedRing(capacity, shards int) (*ShardedRing, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", queue.ErrInvalidCapacity, capacity)
	}
	if shards < 1 {
		return nil, fmt.Errorf("combined: shards must be positive, got %d", shards)
	}
	r, err := ring.NewShardedRing(uint64(capacity), uint64(shards))
	if err != nil {
		return nil, fmt.Errorf("combined: sharded ring capacity=%d shards=%d: %w", capacity, shards, err)
	}
	return &ShardedRing{r: r}, nil
}

// Put writes v as producer 0.
func (p *ShardedRing) Put(v int) error {
	return p.PutFrom(0, v)
}

// PutFrom spins until v is written to the shard of producer id, or the ring
// is closed.
func (p *ShardedRing) PutFrom(id uint64, v int) error {
	sw := spin.Wait{}
	for !p.closed.Load() {
		if p.r.Write(id, v) {
			return nil
		}
		sw.Once()
	}
	return queue.ErrClosed
}

// Take spins until an item is read, or the ring is closed and empty.
func (p *ShardedRing) Take() (int, error) {
	sw := spin.Wait{}
	for {
		closed := p.closed.Load()
		if v, ok := p.r.TryRead(); ok {
			return v.(int), nil
		}
		if closed {
			return 0, queue.ErrClosed
		}
		sw.Once()
	}
}

// Close makes Put fail; Take fails once the buffered items are gone.
func (p *ShardedRing) Close() {
	p.closed.Store(true)
}
