// Package sem implements the counting semaphore used for thread
// synchronization. It has no dependency on the process table or scheduler:
// blocking and waking a task are done through SleepFn/WakeFn, two package
// vars wired up by package sched at boot, the same dependency-inversion
// trick package sync uses for Sleeplock. This keeps sem (which the process
// table embeds a slice of) from importing sched, which itself needs the
// process table — an import cycle otherwise.
package sem

import "sv39kernel/kernel/sync"

// TaskRef identifies a waiting task by (pid, tid) without requiring this
// package to know anything about the Process/Task types that live in
// package proc.
type TaskRef struct {
	Pid int
	Tid int
}

// SleepFn parks the calling task on the given wait channel, atomically
// releasing guard as part of the sleep protocol. WakeFn moves exactly the
// given task from SLEEPING to RUNNABLE and onto the ready queue.
var (
	SleepFn func(channel uintptr, guard *sync.Spinlock)
	WakeFn  func(t TaskRef)
)

// Semaphore is a counting semaphore with a FIFO list of blocked waiters,
// guarded by one spinlock. up increments the count and, if any task is
// waiting, wakes the one at the head of the FIFO list; down decrements the
// count and blocks the caller if the result went negative.
type Semaphore struct {
	lock    sync.Spinlock
	count   int
	waiters []TaskRef
}

// New returns a Semaphore initialized to count n.
func New(n int) *Semaphore {
	return &Semaphore{count: n}
}

// Count returns the semaphore's current count. It exists for tests
// asserting the up/down count invariant; production code has no business
// reading it without also holding a sleep/wakeup race in mind.
func (s *Semaphore) Count() int {
	s.lock.Acquire()
	defer s.lock.Release()
	return s.count
}

// Up increments the count. If any task is blocked in Down, the one at the
// head of the FIFO waiters list is woken — at most one task resumes per Up.
func (s *Semaphore) Up() {
	s.lock.Acquire()
	s.count++
	var woken TaskRef
	wake := false
	if s.count <= 0 && len(s.waiters) > 0 {
		woken = s.waiters[0]
		s.waiters = s.waiters[1:]
		wake = true
	}
	s.lock.Release()

	if wake && WakeFn != nil {
		WakeFn(woken)
	}
}

// Down decrements the count. If the result is negative, the calling task
// (identified by self) is pushed onto the FIFO waiters list and parked via
// SleepFn, which atomically releases the semaphore's own lock as part of
// the sleep protocol. Down returns once ownership has been granted; no
// re-check of the count is needed because Up wakes exactly one waiter per
// unit it releases.
func (s *Semaphore) Down(self TaskRef) {
	s.lock.Acquire()
	s.count--
	if s.count < 0 {
		s.waiters = append(s.waiters, self)
		if SleepFn == nil {
			panic("sem: Down blocked before the scheduler installed SleepFn")
		}
		SleepFn(s.channel(self), &s.lock)
		return
	}
	s.lock.Release()
}

// channel derives the sleep-channel identity for self: spec defines it as
// "address of current task", which this package models as a value unique
// to (pid, tid) rather than a real pointer, since TaskRef carries no
// pointer of its own.
func (s *Semaphore) channel(t TaskRef) uintptr {
	return uintptr(t.Pid)<<32 | uintptr(uint32(t.Tid))
}
