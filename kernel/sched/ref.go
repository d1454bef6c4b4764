package sched

import (
	"sv39kernel/kernel/proc"
)

// Ref identifies a schedulable unit of execution: either a process's main
// thread (Tid == 0) or one of its secondary Task threads (Tid == that
// task's tid). Every ready-queue entry, sleep channel owner and "current
// task on this hart" value is a Ref.
type Ref struct {
	Pid int
	Tid int
}

// RunState is the scheduler's unified view of a Ref's lifecycle stage,
// collapsing proc.State and proc.TaskStatus (which differ because a
// Process has UNUSED/ALLOCATED stages a Task does not) onto the four
// states the scheduler actually acts on.
type RunState int

const (
	StateRunnable RunState = iota
	StateRunning
	StateSleeping
	StateZombie
	stateOther // ALLOCATED, UNUSED, Available: not runnable, not scheduler's concern
)

func procState(s proc.State) RunState {
	switch s {
	case proc.Runnable:
		return StateRunnable
	case proc.Running:
		return StateRunning
	case proc.Sleeping:
		return StateSleeping
	case proc.Zombie:
		return StateZombie
	default:
		return stateOther
	}
}

func taskState(s proc.TaskStatus) RunState {
	switch s {
	case proc.Ready:
		return StateRunnable
	case proc.TaskRunning:
		return StateRunning
	case proc.Blocked:
		return StateSleeping
	case proc.TaskZombie:
		return StateZombie
	default:
		return stateOther
	}
}

// processOf returns the Process main slot for ref.Pid.
func processOf(ref Ref) *proc.Process {
	return proc.Lookup(ref.Pid)
}

// taskOf returns the Task within ref.Pid's slot with tid == ref.Tid, or
// nil if ref does not name a secondary task.
func taskOf(ref Ref) *proc.Task {
	p := processOf(ref)
	if p == nil {
		return nil
	}
	for _, t := range p.Tasks {
		if t.Tid == ref.Tid {
			return t
		}
	}
	return nil
}

// withLock acquires the lock guarding ref (the process's Excl for a main
// thread, the task's Inner for a secondary task) and invokes fn while held.
func withLock(ref Ref, fn func()) {
	if ref.Tid == 0 {
		p := processOf(ref)
		p.Excl.Acquire()
		defer p.Excl.Release()
		fn()
		return
	}
	t := taskOf(ref)
	t.Inner.Acquire()
	defer t.Inner.Release()
	fn()
}
