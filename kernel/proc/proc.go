// Package proc implements the process/task table: a fixed-size array of
// Process slots, each with its own vector of secondary Task threads, and
// the pid/tid allocators that back them. It depends on package vmm for
// address spaces, package trap for the TrapFrame layout, and package sem
// for a process's semaphore table, but not on package sched — the
// scheduler imports proc, never the reverse.
package proc

import (
	"sync/atomic"

	"sv39kernel/kernel/cpu"
	"sv39kernel/kernel/mem/vmm"
	"sv39kernel/kernel/sem"
	"sv39kernel/kernel/sync"
	"sv39kernel/kernel/trap"
)

// State is a process slot's lifecycle stage.
type State int

const (
	Unused State = iota
	Allocated
	Runnable
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Allocated:
		return "ALLOCATED"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Sleeping:
		return "SLEEPING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "?"
	}
}

const maxOpenFiles = 16

// Process is one slot in the fixed-size process table.
type Process struct {
	Pid       int
	ParentPid int // 0 means no parent

	// Excl is the lock guarding the fields below it in this block: state
	// transitions, exit status and the sleep channel. Anything touching
	// them from a hart other than the one running this process must hold
	// Excl first.
	Excl        sync.Spinlock
	state       State
	ExitStatus  int
	SleepChan   uintptr
	MainTid     int

	// Private data: touched only while holding Excl, or by the hart
	// actually running this process's main thread.
	KernelStackBase uint64
	UstackBase      uint64
	Sz              uint64
	Context         cpu.Context
	Name            string
	OpenFiles       [maxOpenFiles]bool // placeholder slots; file bodies are out of scope
	PageTable       *vmm.PageTable
	MainTrapframe   *trap.TrapFrame

	Children []int // pids of live child processes
	Tasks    []*Task

	Sems [8]*sem.Semaphore

	killed int32 // atomic; readable without Excl
}

// State returns the process's current lifecycle state. Callers that need a
// consistent read together with other Excl-guarded fields should hold Excl
// themselves instead.
func (p *Process) State() State {
	p.Excl.Acquire()
	defer p.Excl.Release()
	return p.state
}

// SetState transitions the process to s. Callers must hold Excl.
func (p *Process) SetState(s State) { p.state = s }

// RawState returns the process's state without acquiring Excl. Callers
// that already hold Excl (the scheduler, mid-transition) use this instead
// of State to avoid a recursive-acquire deadlock.
func (p *Process) RawState() State { return p.state }

// Killed reports the process's killed flag without acquiring Excl, per the
// core's "readable without the lock" contract.
func (p *Process) Killed() bool { return atomic.LoadInt32(&p.killed) != 0 }

// Kill sets the process's killed flag.
func (p *Process) Kill() { atomic.StoreInt32(&p.killed, 1) }

// TaskStatus is a secondary task (thread)'s lifecycle stage.
type TaskStatus int

const (
	Available TaskStatus = iota
	Ready
	TaskRunning
	Blocked
	TaskZombie
)

// Task is a secondary thread inside a process. The main thread of a
// process is not represented by a Task; it uses the Process's own fields
// and lock directly.
type Task struct {
	Tid      int
	Pos      int // position within the process, used to derive stack/trapframe VAs
	ProcPid  int

	KernelStackBase uint64
	Trapframe       *trap.TrapFrame

	Inner sync.Spinlock // guards the fields below

	status    TaskStatus
	SleepChan uintptr
	context   cpu.Context
	exitCode  int

	killed int32
}

func (t *Task) Status() TaskStatus {
	t.Inner.Acquire()
	defer t.Inner.Release()
	return t.status
}

func (t *Task) SetStatus(s TaskStatus) { t.status = s }

// RawStatus returns the task's status without acquiring Inner. Callers that
// already hold Inner use this instead of Status to avoid a recursive-acquire
// deadlock.
func (t *Task) RawStatus() TaskStatus { return t.status }

// Context returns a pointer to the task's saved switch context. The caller
// must hold Inner.
func (t *Task) Context() *cpu.Context { return &t.context }

// ExitCode returns the task's recorded exit code. The caller must hold Inner.
func (t *Task) ExitCode() int { return t.exitCode }

// SetExitCode records the task's exit code. The caller must hold Inner.
func (t *Task) SetExitCode(code int) { t.exitCode = code }

func (t *Task) Killed() bool { return atomic.LoadInt32(&t.killed) != 0 }
func (t *Task) Kill()        { atomic.StoreInt32(&t.killed, 1) }
