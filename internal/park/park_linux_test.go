//go:build linux

package park

import (
	"runtime"
	"testing"
	"time"
)

// With one P a ping-pong should hand the P over by yielding, not by sleeping
// in the kernel while the counterpart waits for sysmon.
func TestParker_PingPongOneProcYields(t *testing.T) {
	const rounds = 2000

	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	a, b := New(), New()
	before := sleeps.Load()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			b.Park()
			a.Unpark()
		}
	}()
	for i := 0; i < rounds; i++ {
		b.Unpark()
		a.Park()
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ping-pong did not finish")
	}

	if n := sleeps.Load() - before; n > rounds/10 {
		t.Errorf("expected few futex sleeps on one P, got %d in %d rounds", n, rounds)
	}
}

func TestParker_SleepsWhenNobodyUnparks(t *testing.T) {
	p := New()
	before := sleeps.Load()

	done := make(chan struct{})
	go func() {
		p.Park()
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for sleeps.Load() == before {
		if time.Now().After(deadline) {
			t.Fatal("Park never reached the futex")
		}
		time.Sleep(time.Millisecond)
	}
	p.Unpark()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Unpark did not wake the sleeping goroutine")
	}
}
