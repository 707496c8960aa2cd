//go:build !linux

package park

// Parker holds the permit in a one-slot channel. Use New; the zero value
// is not usable.
type Parker struct {
	permit chan struct{}
}

// New returns a Parker without a permit.
func New() *Parker {
	return &Parker{permit: make(chan struct{}, 1)}
}

// Park blocks until a permit is granted, then consumes it.
func (p *Parker) Park() {
	<-p.permit
}

// Unpark grants the permit and wakes the parked goroutine, if any.
// It is a no-op on a nil Parker.
func (p *Parker) Unpark() {
	if p == nil {
		return
	}
	select {
	case p.permit <- struct{}{}:
	default:
	}
}
