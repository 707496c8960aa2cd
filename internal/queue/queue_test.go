package queue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

func newQueue(t *testing.T, kind queue.Kind, capacity int) queue.Queue {
	t.Helper()
	q, err := queue.New(kind, capacity)
	if err != nil {
		t.Fatalf("New(%v, %d): %v", kind, capacity, err)
	}
	return q
}

func mustOffer(t *testing.T, q queue.Queue, v int, want bool) {
	t.Helper()
	ok, err := q.Offer(v)
	if err != nil {
		t.Fatalf("Offer(%d): unexpected error %v", v, err)
	}
	if ok != want {
		t.Fatalf("Offer(%d) = %v, want %v", v, ok, want)
	}
}

func mustPoll(t *testing.T, q queue.Queue, fallback, want int) {
	t.Helper()
	got, err := q.Poll(fallback)
	if err != nil {
		t.Fatalf("Poll(%d): unexpected error %v", fallback, err)
	}
	if got != want {
		t.Fatalf("Poll(%d) = %d, want %d", fallback, got, want)
	}
}

func forEachKind(t *testing.T, fn func(t *testing.T, kind queue.Kind)) {
	for _, kind := range queue.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			fn(t, kind)
		})
	}
}

func TestQueue_OfferPollWrap(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 4)

		mustPoll(t, q, -1, -1)
		for v := 1; v <= 4; v++ {
			mustOffer(t, q, v, true)
		}
		mustOffer(t, q, 5, false)
		mustPoll(t, q, -1, 1)
		mustOffer(t, q, 5, true)

		for _, want := range []int{2, 3, 4, 5} {
			mustPoll(t, q, -1, want)
		}
		mustPoll(t, q, -1, -1)
	})
}

func TestQueue_FIFO(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 8)

		for i := 0; i < 5; i++ {
			if err := q.Put(i); err != nil {
				t.Fatalf("Put(%d): %v", i, err)
			}
		}

		for i := 0; i < 5; i++ {
			got, err := q.Take()
			if err != nil {
				t.Fatalf("Take() for item %d: %v", i, err)
			}
			if got != i {
				t.Errorf("FIFO violation: expected %d, got %d", i, got)
			}
		}
	})
}

func TestQueue_Full(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 2)
		mustOffer(t, q, 1, true)
		mustOffer(t, q, 2, true)
		mustOffer(t, q, 3, false)
		if q.Len() != 2 {
			t.Errorf("expected Len() = 2 on full queue, got %d", q.Len())
		}
	})
}

func TestQueue_LenCap(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 8)

		if q.Len() != 0 {
			t.Errorf("expected Len() = 0, got %d", q.Len())
		}
		if q.Cap() != 8 {
			t.Errorf("expected Cap() = 8, got %d", q.Cap())
		}

		mustOffer(t, q, 1, true)
		mustOffer(t, q, 2, true)

		if q.Len() != 2 {
			t.Errorf("expected Len() = 2, got %d", q.Len())
		}
	})
}

// Offer on a full spin queue reports failure instead of spinning for space.
func TestSpinQueue_OfferDoesNotSpin(t *testing.T) {
	for _, kind := range []queue.Kind{queue.KindSpin, queue.KindPaddedSpin} {
		t.Run(kind.String(), func(t *testing.T) {
			q := newQueue(t, kind, 1)
			mustOffer(t, q, 1, true)

			done := make(chan bool, 1)
			go func() {
				ok, _ := q.Offer(2)
				done <- ok
			}()
			select {
			case ok := <-done:
				if ok {
					t.Fatal("Offer on a full queue succeeded")
				}
			case <-time.After(time.Second):
				t.Fatal("Offer on a full queue waited for space")
			}
			mustPoll(t, q, -1, 1)
		})
	}
}

// The capacity is used as given; unlike power-of-two rings nothing is rounded.
func TestQueue_CapacityNotRounded(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 5)
		if q.Cap() != 5 {
			t.Errorf("expected Cap() = 5, got %d", q.Cap())
		}
		for v := 0; v < 5; v++ {
			mustOffer(t, q, v, true)
		}
		mustOffer(t, q, 5, false)
	})
}

func TestQueue_CloseRejectsEnqueue(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 4)
		q.Close()

		if ok, err := q.Offer(1); ok || !errors.Is(err, queue.ErrClosed) {
			t.Errorf("Offer after Close = (%v, %v), want (false, ErrClosed)", ok, err)
		}
		if err := q.Put(1); !errors.Is(err, queue.ErrClosed) {
			t.Errorf("Put after Close = %v, want ErrClosed", err)
		}
		if q.Len() != 0 {
			t.Errorf("expected Len() = 0 after rejected enqueues, got %d", q.Len())
		}
	})
}

func TestQueue_CloseDrainsBufferedItems(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 4)
		mustOffer(t, q, 10, true)
		mustOffer(t, q, 11, true)
		q.Close()

		if v, err := q.Take(); err != nil || v != 10 {
			t.Errorf("Take after Close = (%d, %v), want (10, nil)", v, err)
		}
		mustPoll(t, q, -1, 11)

		if _, err := q.Take(); !errors.Is(err, queue.ErrClosed) {
			t.Errorf("Take on closed empty queue = %v, want ErrClosed", err)
		}
		if v, err := q.Poll(-1); v != -1 || !errors.Is(err, queue.ErrClosed) {
			t.Errorf("Poll on closed empty queue = (%d, %v), want (-1, ErrClosed)", v, err)
		}
	})
}

func TestQueue_CloseIdempotent(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind queue.Kind) {
		q := newQueue(t, kind, 2)
		mustOffer(t, q, 1, true)
		q.Close()
		q.Close()

		mustPoll(t, q, -1, 1)
		if _, err := q.Take(); !errors.Is(err, queue.ErrClosed) {
			t.Errorf("Take after double Close = %v, want ErrClosed", err)
		}
	})
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, kind := range queue.Kinds() {
		for _, capacity := range []int{0, -1} {
			q, err := queue.New(kind, capacity)
			if !errors.Is(err, queue.ErrInvalidCapacity) {
				t.Errorf("New(%v, %d) error = %v, want ErrInvalidCapacity", kind, capacity, err)
			}
			if q != nil {
				t.Errorf("New(%v, %d) returned non-nil queue", kind, capacity)
			}
		}
	}
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := queue.New(queue.Kind(99), 4); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestConstructors_InvalidCapacity(t *testing.T) {
	if _, err := queue.NewBlocking(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewBlocking(0) = %v", err)
	}
	if _, err := queue.NewSpin(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewSpin(0) = %v", err)
	}
	if _, err := queue.NewSPSC(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewSPSC(0) = %v", err)
	}
	if _, err := queue.NewPaddedSpin(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewPaddedSpin(0) = %v", err)
	}
	if _, err := queue.NewPaddedSPSC(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewPaddedSPSC(0) = %v", err)
	}
	if _, err := queue.NewChannel(0); !errors.Is(err, queue.ErrInvalidCapacity) {
		t.Errorf("NewChannel(0) = %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range queue.Kinds() {
		got, err := queue.ParseKind(kind.String())
		if err != nil {
			t.Errorf("ParseKind(%q): %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("ParseKind(%q) = %v, want %v", kind.String(), got, kind)
		}
	}

	if got, err := queue.ParseKind(" Padded-SPSC "); err != nil || got != queue.KindPaddedSPSC {
		t.Errorf("ParseKind is expected to ignore case and spaces, got (%v, %v)", got, err)
	}
	if _, err := queue.ParseKind("mutex"); err == nil {
		t.Error("expected error for unknown kind name")
	}

	var k queue.Kind
	if err := k.UnmarshalText([]byte("spin")); err != nil || k != queue.KindSpin {
		t.Errorf("UnmarshalText(spin) = (%v, %v)", k, err)
	}
	if s := queue.Kind(42).String(); s != "Kind(42)" {
		t.Errorf("unexpected String() for unknown kind: %q", s)
	}
}

func TestKind_MultiProducer(t *testing.T) {
	for _, kind := range queue.Kinds() {
		want := kind != queue.KindSPSC && kind != queue.KindPaddedSPSC
		if kind.MultiProducer() != want {
			t.Errorf("%v.MultiProducer() = %v, want %v", kind, kind.MultiProducer(), want)
		}
	}
}

// Test that every implementation satisfies the interface
var (
	_ queue.Queue = (*queue.BlockingQueue)(nil)
	_ queue.Queue = (*queue.SpinQueue)(nil)
	_ queue.Queue = (*queue.SPSCQueue)(nil)
	_ queue.Queue = (*queue.PaddedSpinQueue)(nil)
	_ queue.Queue = (*queue.PaddedSPSCQueue)(nil)
	_ queue.Queue = (*queue.ChannelQueue)(nil)
)
