// Package sync provides the synchronization primitives the rest of the
// kernel is built on: a busy-wait Spinlock and, layered on top of it and
// the scheduler's sleep/wakeup, a blocking Sleeplock.
package sync

import (
	"sync/atomic"

	"sv39kernel/kernel/cpu"
)

var (
	// yieldFn runs between failed acquire attempts. It is a package var
	// so it can be swapped out; by default it is a plain no-op spin.
	yieldFn = func() {}
)

// Spinlock is a mutual-exclusion lock that busy-waits. Acquiring it raises
// the calling hart's interrupt-disable nesting depth so that a hart holding
// any spinlock cannot be preempted by a timer interrupt and deadlock with
// itself; releasing the last held spinlock restores whatever interrupt
// state was in effect before the first acquire.
//
// Re-acquiring a spinlock already held by the current hart panics instead
// of spinning on itself forever. Release panics if the
// calling hart does not currently hold the lock, since that is always a
// programming error rather than a race to recover from.
type Spinlock struct {
	state uint32
	name  string
	owner int32 // hart id + 1, 0 means unheld
}

// NewSpinlock returns a Spinlock tagged with name, used only to make panic
// messages diagnosable.
func NewSpinlock(name string) *Spinlock {
	return &Spinlock{name: name}
}

// Name returns the lock's diagnostic name.
func (l *Spinlock) Name() string { return l.name }

// Acquire blocks until the lock can be acquired by the calling hart.
func (l *Spinlock) Acquire() {
	c := cpu.Current()
	c.DisableInterrupts()
	if l.Held() {
		panic("spinlock: recursive acquire of " + l.name)
	}

	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		yieldFn()
	}

	atomic.StoreInt32(&l.owner, int32(c.ID())+1)
}

// TryToAcquire attempts to acquire the lock without blocking. It returns
// true if the lock was acquired.
func (l *Spinlock) TryToAcquire() bool {
	c := cpu.Current()
	c.DisableInterrupts()

	if !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		c.EnableInterrupts()
		return false
	}

	atomic.StoreInt32(&l.owner, int32(c.ID())+1)
	return true
}

// Release relinquishes a held lock. It panics if the calling hart does not
// hold the lock.
func (l *Spinlock) Release() {
	c := cpu.Current()
	if atomic.LoadInt32(&l.owner) != int32(c.ID())+1 {
		panic("spinlock: release of " + l.name + " by hart that does not hold it")
	}

	atomic.StoreInt32(&l.owner, 0)
	atomic.StoreUint32(&l.state, 0)
	c.EnableInterrupts()
}

// Held reports whether the calling hart currently holds the lock.
func (l *Spinlock) Held() bool {
	return atomic.LoadInt32(&l.owner) == int32(cpu.Current().ID())+1
}
