package harness

import (
	"context"
	"sync/atomic"
	"time"
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the current monotonic time in nanoseconds.
// It avoids constructing a time.Time on every check in the hot loop.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// checkEvery is how many operations run between two clock reads.
const checkEvery = 64

// window is a measurement interval polled from a hot loop.
//
// The clock and the stop flag are only consulted every checkEvery calls of
// expired, so a window may overrun by up to checkEvery operations. Callers
// report the actual elapsed time, not the requested one.
type window struct {
	start int64
	end   int64
	count int
	stop  *stopFlag
}

func newWindow(d time.Duration, stop *stopFlag) *window {
	now := nanotime()
	return &window{start: now, end: now + int64(d), stop: stop}
}

// expired returns true once the window has elapsed or the run is stopping.
func (w *window) expired() bool {
	w.count++
	if w.count%checkEvery != 0 {
		return false
	}
	return nanotime() >= w.end || w.stop.done()
}

// elapsed returns the time since the window opened.
func (w *window) elapsed() time.Duration {
	return time.Duration(nanotime() - w.start)
}

// stopFlag mirrors the cancellation of a context into a single atomic load,
// cheap enough to poll from the hot loop.
type stopFlag struct {
	flag atomic.Bool
}

// watch sets the flag when ctx is done. The returned func stops watching.
func (s *stopFlag) watch(ctx context.Context) (release func()) {
	stop := context.AfterFunc(ctx, func() { s.flag.Store(true) })
	return func() { stop() }
}

func (s *stopFlag) done() bool {
	return s != nil && s.flag.Load()
}
