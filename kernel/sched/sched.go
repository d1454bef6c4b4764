// Package sched implements the per-hart scheduling loop, the global ready
// queue, the cooperative switch primitive, and sleep/wakeup/kill/wait. It
// sits above package proc (the process/task table) and wires itself into
// package sem and package sync at Init so those lower packages can block
// and wake tasks without importing sched themselves.
package sched

import (
	"sv39kernel/kernel/cpu"
	"sv39kernel/kernel/proc"
	"sv39kernel/kernel/sem"
	"sv39kernel/kernel/sync"
	"sv39kernel/kernel/trap"
)

// Init wires the lower-level blocking primitives (sleeplock, semaphore) and
// the trap dispatch path to this package's sleep/wakeup/yield/kill so they
// can act on tasks without importing sched, which would cycle back through
// proc. Package boot calls this once, before any task runs.
func Init() {
	sync.SleepFn = func(channel uintptr, guard *sync.Spinlock) { sleepExternal(channel, guard) }
	sync.WakeupFn = func(channel uintptr) { Wakeup(channel) }
	sem.SleepFn = func(channel uintptr, guard *sync.Spinlock) { sleepExternal(channel, guard) }
	sem.WakeFn = func(t sem.TaskRef) { wake(Ref{Pid: t.Pid, Tid: t.Tid}) }

	trap.YieldCurrent = Yielding
	trap.KillProcess = Kill
	trap.WakeChannel = Wakeup
	trap.ExitCurrent = exitCurrent
	trap.CurrentKilled = currentKilled
}

// currentKilled reports whether the task running on the calling hart has
// been killed. A secondary task shares its process's killed flag: spec §5
// tracks killed "per-process and per-task", but a task's own Kill is only
// ever set by this same core to propagate a process-wide kill, so checking
// the owning process here is sufficient and avoids a second flag to keep in
// sync.
func currentKilled() bool {
	self := current()
	p := processOf(self)
	if p == nil {
		return false
	}
	return p.Killed()
}

// exitCurrent is the trap path's hook for the "any other exception" and
// "supervisor ecall in kernel mode" fatal-to-the-process paths: spec §4.7
// calls for "set killed and exit with status -1" there, so this sets the
// killed flag (distinct from an ordinary, unkilled sys_exit) before handing
// off to Exit for the shared reparent/wake/zombie mechanics.
func exitCurrent(status int) {
	self := current()
	if p := processOf(self); p != nil {
		p.Kill()
	}
	Exit(status)
}

func current() Ref {
	c := cpu.Current()
	return Ref{Pid: c.CurrentPid, Tid: c.CurrentTid}
}

// Step pops one Ref off the ready queue and runs it on the calling hart
// until it next yields, sleeps, or exits. It reports whether there was work
// to do. Package boot's per-hart loop calls this in a tight loop; tests call
// it directly for deterministic, single-step control over the scheduler.
func Step(hartID int) bool {
	ref, ok := popReady()
	if !ok {
		return false
	}

	withLock(ref, func() {
		if ref.Tid == 0 {
			p := processOf(ref)
			if p.RawState() != proc.Runnable {
				panic("sched: ready queue held a non-RUNNABLE process")
			}
			p.SetState(proc.Running)
		} else {
			t := taskOf(ref)
			if t.RawStatus() != proc.Ready {
				panic("sched: ready queue held a non-Ready task")
			}
			t.SetStatus(proc.TaskRunning)
		}
	})

	hart := cpu.Mine(hartID)
	hart.SetCurrent(ref.Pid, ref.Tid)
	hart.EnableInterrupts()
	run(ref)
	hart.DisableInterrupts()
	hart.ClearCurrent()

	return true
}

// RunHart runs hart hartID's scheduler main loop forever: pop ready work and
// run it, or note that the hart is idle. It never returns; package boot
// starts one of these per hart after bring-up, per the core's "per-hart
// scheduler loop, no further work once it starts" contract. pause is called
// when Step finds nothing to do, standing in for the real WFI wait-for-
// interrupt instruction.
func RunHart(hartID int, pause func()) {
	cpu.SetHartID(hartID)
	for {
		if !Step(hartID) {
			pause()
		}
	}
}

// Start transitions a freshly ALLOCATED process to RUNNABLE and pushes it
// onto the ready queue. Package boot calls this once for the first user
// process; a complete fork implementation would call it for every new
// child once its address space and trapframe are ready.
func Start(p *proc.Process) {
	p.Excl.Acquire()
	if p.RawState() != proc.Allocated {
		p.Excl.Release()
		panic("sched: Start called on a process that is not ALLOCATED")
	}
	p.SetState(proc.Runnable)
	p.Excl.Release()
	pushReady(Ref{Pid: p.Pid, Tid: 0})
}

// EnqueueTask publishes a freshly allocated (status Ready) task to the
// scheduler. AllocTask itself only builds the task's resources; this is the
// separate step that makes it eligible to run.
func EnqueueTask(pid int, tid int) {
	pushReady(Ref{Pid: pid, Tid: tid})
}

// Yielding is called by a task about itself (from inside its own goroutine,
// spawned by Spawn) to voluntarily give up the hart: it must currently be
// Running. Control returns to whichever hart's Step called it once that hart
// schedules it again.
func Yielding() {
	self := current()
	withLock(self, func() {
		if self.Tid == 0 {
			p := processOf(self)
			if p.RawState() != proc.Running {
				panic("sched: Yielding called while not Running")
			}
			p.SetState(proc.Runnable)
		} else {
			t := taskOf(self)
			if t.RawStatus() != proc.TaskRunning {
				panic("sched: Yielding called while not Running")
			}
			t.SetStatus(proc.Ready)
		}
	})
	pushReady(self)
	parkSelf(self)
}

// Sleep suspends the calling task on channel, dropping externalGuard once it
// is safe to do so (after the task's own lock is held, so any wakeup must
// queue up behind that lock until Sleep finishes marking the state).
// externalGuard may be nil when the caller has nothing else to drop (the
// scheduler's own internal blocking paths).
func Sleep(channel uintptr, externalGuard *sync.Spinlock) {
	self := current()
	sleepOn(self, channel, externalGuard)
}

// sleepExternal is the hook package sync and package sem install at Init:
// lower packages never learn a Ref, only the generic (channel, guard) pair,
// so they call this by way of the function-var seam instead of Sleep
// directly.
func sleepExternal(channel uintptr, guard *sync.Spinlock) {
	Sleep(channel, guard)
}

func sleepOn(self Ref, channel uintptr, externalGuard *sync.Spinlock) {
	if self.Tid == 0 {
		p := processOf(self)
		p.Excl.Acquire()
		if externalGuard != nil {
			externalGuard.Release()
		}
		p.SetState(proc.Sleeping)
		p.SleepChan = channel
		p.Excl.Release()
	} else {
		t := taskOf(self)
		t.Inner.Acquire()
		if externalGuard != nil {
			externalGuard.Release()
		}
		t.SetStatus(proc.Blocked)
		t.SleepChan = channel
		t.Inner.Release()
	}

	parkSelf(self)

	withLock(self, func() {
		if self.Tid == 0 {
			processOf(self).SleepChan = 0
		} else {
			taskOf(self).SleepChan = 0
		}
	})
}

// Wakeup scans every process and task slot; any whose lock reveals it
// SLEEPING/Blocked on channel is made RUNNABLE/Ready and pushed onto the
// ready queue. Each slot's lock is dropped before the next is examined.
func Wakeup(channel uintptr) {
	for pid := 1; pid <= proc.NPROC; pid++ {
		p := proc.Lookup(pid)
		if p == nil {
			continue
		}
		ref := Ref{Pid: p.Pid, Tid: 0}
		woke := false
		withLock(ref, func() {
			if p.RawState() == proc.Sleeping && p.SleepChan == channel {
				p.SetState(proc.Runnable)
				woke = true
			}
		})
		if woke {
			pushReady(ref)
		}

		for _, t := range p.Tasks {
			tref := Ref{Pid: p.Pid, Tid: t.Tid}
			wokeTask := false
			withLock(tref, func() {
				if t.RawStatus() == proc.Blocked && t.SleepChan == channel {
					t.SetStatus(proc.Ready)
					wokeTask = true
				}
			})
			if wokeTask {
				pushReady(tref)
			}
		}
	}
}

// wake force-wakes exactly the Ref named, used by package sem: a semaphore
// knows which waiter to wake (FIFO order among its own waiters) without
// needing a generic channel value.
func wake(ref Ref) {
	var woke bool
	withLock(ref, func() {
		if ref.Tid == 0 {
			p := processOf(ref)
			if p.RawState() == proc.Sleeping {
				p.SetState(proc.Runnable)
				woke = true
			}
		} else {
			t := taskOf(ref)
			if t.RawStatus() == proc.Blocked {
				t.SetStatus(proc.Ready)
				woke = true
			}
		}
	})
	if woke {
		pushReady(ref)
	}
}

// Kill marks pid killed and, if its main thread is currently SLEEPING,
// force-wakes it so it observes the kill at its next checkpoint. Secondary
// tasks are not separately force-woken here; they observe Killed() the next
// time they check, same as a RUNNING main thread would.
func Kill(pid int) {
	p := proc.Lookup(pid)
	if p == nil {
		return
	}
	p.Kill()

	ref := Ref{Pid: pid, Tid: 0}
	var shouldWake bool
	withLock(ref, func() {
		if p.RawState() == proc.Sleeping {
			p.SetState(proc.Runnable)
			shouldWake = true
		}
	})
	if shouldWake {
		pushReady(ref)
	}
}
