// Package combined runs the queue kinds side by side with third-party
// lock-free queues.
//
// The outside queues are adapted to Pipe, the blocking part of queue.Queue,
// with the same close policy: Put fails once closed, Take drains what is
// buffered and then fails with queue.ErrClosed. Their waits spin, as they
// have no way to park.
//
// These adapters exist for comparison only. Their capacities are rounded up
// to what the underlying queue supports, so they are not queue kinds.
package combined
