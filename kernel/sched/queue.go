package sched

import "sv39kernel/kernel/sync"

// readyQueue is the global FIFO of Refs whose status is Runnable/Ready and
// which are not currently assigned to any hart. A Ref is on this queue iff
// its process/task status says Runnable — pushed exactly once on that
// transition, popped exactly once before a hart sets it Running.
var (
	queueLock sync.Spinlock
	queue     []Ref
)

// pushReady appends ref to the tail of the ready queue. Every caller in
// this package releases ref's own Excl/Inner lock before calling it, so
// queueLock is never taken while a process or task lock is held.
func pushReady(ref Ref) {
	queueLock.Acquire()
	queue = append(queue, ref)
	queueLock.Release()
}

// popReady removes and returns the Ref at the head of the ready queue, or
// (Ref{}, false) if the queue is empty.
func popReady() (Ref, bool) {
	queueLock.Acquire()
	defer queueLock.Release()
	if len(queue) == 0 {
		return Ref{}, false
	}
	ref := queue[0]
	queue = queue[1:]
	return ref, true
}

// readyLen reports the ready queue's current length. Exposed for tests that
// check the "on ready queue iff Runnable and not running" invariant.
func readyLen() int {
	queueLock.Acquire()
	defer queueLock.Release()
	return len(queue)
}
