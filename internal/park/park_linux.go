//go:build linux

package park

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex operations, private to this process.
const (
	futexWaitPrivate = 128 // FUTEX_WAIT | FUTEX_PRIVATE_FLAG
	futexWakePrivate = 129 // FUTEX_WAKE | FUTEX_PRIVATE_FLAG
)

// yieldsBeforeSleep is how many times Park hands its P to another goroutine
// before it sleeps in the kernel.
const yieldsBeforeSleep = 3

// sleeps counts futex waits, for tests.
var sleeps atomic.Uint64

// Parker sleeps on a futex word holding the permit (0 = none, 1 = granted).
// The zero value is ready to use.
//
// A goroutine sleeping in the futex syscall keeps its P until sysmon retakes
// it, which can stall a runnable counterpart for tens of microseconds when
// GOMAXPROCS is small. Park therefore yields a few times first; on a single P
// that is usually enough for the unparking goroutine to run.
type Parker struct {
	permit uint32
}

// New returns a Parker without a permit.
func New() *Parker {
	return &Parker{}
}

// Park blocks until a permit is granted, then consumes it.
func (p *Parker) Park() {
	for i := 0; i < yieldsBeforeSleep; i++ {
		if atomic.CompareAndSwapUint32(&p.permit, 1, 0) {
			return
		}
		runtime.Gosched()
	}
	for !atomic.CompareAndSwapUint32(&p.permit, 1, 0) {
		futexWait(&p.permit, 0)
	}
}

// Unpark grants the permit and wakes the parked goroutine, if any.
// It is a no-op on a nil Parker.
func (p *Parker) Unpark() {
	if p == nil {
		return
	}
	if atomic.SwapUint32(&p.permit, 1) == 0 {
		futexWake(&p.permit)
	}
}

// futexWait sleeps while *addr == val. It returns on wake-up, on a value
// mismatch and on signals; the caller loops on its own condition.
func futexWait(addr *uint32, val uint32) {
	sleeps.Add(1)
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWaitPrivate,
		uintptr(val),
		0, // no timeout
		0,
		0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
	default:
		panic(fmt.Errorf("park: futex wait failed: %w", errno))
	}
}

// futexWake wakes at most one goroutine sleeping on addr.
func futexWake(addr *uint32) {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakePrivate,
		1,
		0,
		0,
		0,
	)
	if errno != 0 {
		panic(fmt.Errorf("park: futex wake failed: %w", errno))
	}
}
