package queue

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// cacheLineSize is the padding unit of the padded layouts. 128 bytes covers
// Apple Silicon lines and the adjacent-line prefetcher on x86-64; it is never
// smaller than the line size x/sys/cpu reports for the target.
const cacheLineSize = max(128, unsafe.Sizeof(cpu.CacheLinePad{}))

// slotPad is the number of unused slots placed before and after the live
// slots of a padded ring.
const slotPad = int(cacheLineSize / unsafe.Sizeof(int(0)))

// pad separates fields that must not share a cache line.
type pad [cacheLineSize]byte
