package queue

// ring is the circular buffer state shared by every queue. It is not
// synchronized; each queue guards it with its own lock.
//
// Invariants: 0 <= size <= len(slots), 0 <= readIdx < len(slots).
// The write position is (readIdx + size) mod len(slots).
type ring struct {
	slots   []int
	readIdx int
	size    int
}

func newRing(capacity int) ring {
	return ring{slots: make([]int, capacity)}
}

// newPaddedRing backs the slots with slotPad unused words on each side, so
// live slots never share a cache line with another heap object.
func newPaddedRing(capacity int) ring {
	backing := make([]int, slotPad+capacity+slotPad)
	return ring{slots: backing[slotPad : slotPad+capacity : slotPad+capacity]}
}

func (r *ring) full() bool { return r.size == len(r.slots) }

func (r *ring) empty() bool { return r.size == 0 }

func (r *ring) push(v int) {
	n := len(r.slots)
	r.slots[(r.readIdx+r.size)%n] = v
	r.size++
}

func (r *ring) pop() int {
	v := r.slots[r.readIdx]
	r.readIdx = (r.readIdx + 1) % len(r.slots)
	r.size--
	return v
}
