package sched

import "sync"

// control is the goroutine-parking stand-in for a task's saved register
// context. Real hardware suspends a task by saving its callee-saved
// registers and resuming the scheduler's own; this hosted build has no
// registers to save, so a task's "suspended" state is simply its goroutine
// blocked on resume, and "running" is that goroutine unblocked and executing
// between a send on resume and the matching send on yielded. Exactly one
// handoff is in flight in either direction at any time, which is what the
// spec's single-threaded switch() primitive guarantees on real hardware too.
type control struct {
	resume  chan struct{}
	yielded chan struct{}
}

var (
	registryMu sync.Mutex
	registry   = map[Ref]*control{}
)

func newControl() *control {
	return &control{resume: make(chan struct{}), yielded: make(chan struct{})}
}

func register(ref Ref) *control {
	c := newControl()
	registryMu.Lock()
	registry[ref] = c
	registryMu.Unlock()
	return c
}

func lookupControl(ref Ref) *control {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[ref]
}

func unregister(ref Ref) {
	registryMu.Lock()
	delete(registry, ref)
	registryMu.Unlock()
}

// Spawn starts body running as ref's task, as a goroutine parked waiting for
// the first resume. body is the task's own code; when it calls Yielding or
// Sleep (from inside this goroutine, since those are only ever called by a
// task about itself) control is handed back to whichever hart's run() called
// it, and the goroutine blocks until resumed again. When body returns the
// task has fallen off the end of its own execution — the caller is
// responsible for having already marked it Zombie beforehand, exactly as a
// real task's last trap return marks it zombie before its final switch back
// to the scheduler never happens.
func Spawn(ref Ref, body func()) {
	c := register(ref)
	go func() {
		<-c.resume
		body()
		registryMu.Lock()
		if registry[ref] == c {
			delete(registry, ref)
		}
		registryMu.Unlock()
		c.yielded <- struct{}{}
	}()
}

// run hands control to ref's parked goroutine and blocks until it hands
// control back, standing in for `switch(&cpu.context, &t.context)` in the
// scheduler loop followed by the task's own switch call returning here.
// Reports false if ref was never Spawned (or has already exited and been
// reaped).
func run(ref Ref) bool {
	c := lookupControl(ref)
	if c == nil {
		return false
	}
	c.resume <- struct{}{}
	<-c.yielded
	return true
}

// parkSelf is called from inside a task's own goroutine (by Yielding or
// Sleep) to hand control back to the hart that resumed it, then block until
// resumed again. self must be the Ref this goroutine was Spawned as.
func parkSelf(self Ref) {
	c := lookupControl(self)
	if c == nil {
		panic("sched: parkSelf called for an unregistered task")
	}
	c.yielded <- struct{}{}
	<-c.resume
}
