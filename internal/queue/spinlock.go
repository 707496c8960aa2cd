package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spinLock is a lock word acquired with compare-and-swap in a busy loop.
// It never parks the goroutine.
type spinLock struct {
	state atomix.Uint64 // 0 = free, 1 = held
}

func (l *spinLock) lock() {
	sw := spin.Wait{}
	for l.state.LoadRelaxed() != 0 || !l.state.CompareAndSwapAcqRel(0, 1) {
		sw.Once()
	}
}

func (l *spinLock) unlock() {
	l.state.StoreRelease(0)
}
