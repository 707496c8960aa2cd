// Package park provides a one-permit park/unpark primitive.
//
// A Parker identifies one waiting goroutine. Park blocks until a permit is
// available and consumes it; Unpark makes the permit available, waking the
// goroutine if it is parked. A permit granted before Park is not lost, so
// the waker and the waiter may race freely.
//
// Park returns only after an Unpark. It is a hint, not a guarantee about any
// other state: callers must re-check their condition after waking.
package park

import "sync"

var pool = sync.Pool{
	New: func() any { return New() },
}

// Get returns a Parker from a shared pool, for callers that do not keep
// their own.
func Get() *Parker {
	return pool.Get().(*Parker)
}

// Release returns p to the pool. Every Unpark of p must have been consumed by
// a Park before Release, or the next user inherits a stale permit.
func Release(p *Parker) {
	if p != nil {
		pool.Put(p)
	}
}
