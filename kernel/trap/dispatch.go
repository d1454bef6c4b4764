package trap

import "sv39kernel/kernel/kfmt"

// The hooks below let user_trap/kernel_trap act on the running task and the
// rest of the system without this package importing package sched (which
// imports package proc, which imports this package for *TrapFrame — trap
// importing sched back would cycle) or package syscall (whose dispatch hook
// needs *TrapFrame too, same problem in the other direction). Package sched
// wires Yield/Kill/WakeChannel at boot; package syscall wires
// DispatchSyscallFn from its own init. This is the same function-var seam
// package sync and package sem use for SleepFn/WakeupFn.
var (
	// YieldCurrent voluntarily gives up the hart running the calling trap
	// handler's task, per `yielding` in spec §4.6.
	YieldCurrent func()

	// KillProcess marks pid killed and force-wakes it if sleeping.
	KillProcess func(pid int)

	// WakeChannel wakes every task sleeping on channel (the ticks channel,
	// in the timer-interrupt path).
	WakeChannel func(channel uintptr)

	// ExitCurrent terminates the calling task's process with the given
	// status; used by the "any other exception" and "supervisor ecall in
	// kernel mode" fatal-to-the-process paths. It returns once the process
	// is a ZOMBIE, and the trap handler then returns as well.
	ExitCurrent func(status int)

	// CurrentKilled reports whether the task running the calling trap
	// handler has been killed.
	CurrentKilled func() bool

	// DispatchSyscallFn dispatches tf's syscall selector, wired by package
	// syscall's init. Returns false for a selector the numbering table does
	// not cover at all (the fatal "unknown syscall number" case); true
	// otherwise (tf.Regs[RegA0] already holds the result, success or -1).
	DispatchSyscallFn func(tf *TrapFrame) bool
)

// TicksChannel is the fixed, well-known sleep channel value tasks sleeping
// in the `sleep(ticks)` syscall wait on; the timer-interrupt path wakes it
// once per tick.
const TicksChannel uintptr = 1

var ticks uint64

// Ticks returns the current tick count.
func Ticks() uint64 { return ticks }

// advanceTicks bumps the tick counter and wakes anyone sleeping on it. Only
// hart 0 calls this, per spec §4.7 ("Only hart 0 advances the global tick
// counter").
func advanceTicks() {
	ticks++
	if WakeChannel != nil {
		WakeChannel(TicksChannel)
	}
}

// UserTrap implements spec §4.7's user_trap dispatch table. hartID is the
// id of the hart handling the trap; scause is the raw scause CSR value the
// trampoline captured; tf is the trapping task's trapframe.
func UserTrap(hartID int, scause uint64, tf *TrapFrame) {
	cause := DecodeScause(scause)

	switch cause {
	case CauseSupervisorExternal:
		// Device dispatch (UART, virtio-disk, …) is out of this core's
		// scope; a real build registers its own IRQ handlers here.
		checkKilled()

	case CauseSupervisorTimer:
		if hartID == 0 {
			advanceTicks()
		}
		checkKilled()
		if YieldCurrent != nil {
			YieldCurrent()
		}

	case CauseUserEcall:
		tf.Epc += 4 // advance past the ecall instruction
		checkKilled()
		if DispatchSyscallFn != nil {
			if !DispatchSyscallFn(tf) {
				kfmt.Printf("unknown syscall number %d\n", tf.Selector())
				panic("trap: unknown syscall number")
			}
		}
		checkKilled()

	default:
		kfmt.Printf("unexpected trap: scause=0x%x epc=0x%x\n", scause, tf.Epc)
		if ExitCurrent != nil {
			ExitCurrent(-1)
		}
	}
}

// KernelTrap implements spec §4.7's kernel_trap handling: the same
// device/timer dispatch, but an ecall from supervisor mode is fatal, and a
// timer tick triggers a yield of whatever task is currently running on this
// hart (if any) rather than returning to user mode.
func KernelTrap(hartID int, scause uint64) {
	cause := DecodeScause(scause)

	switch cause {
	case CauseSupervisorExternal:
		// device dispatch, as above.
	case CauseSupervisorTimer:
		if hartID == 0 {
			advanceTicks()
		}
		if YieldCurrent != nil {
			YieldCurrent()
		}
	case CauseSupervisorEcall:
		panic("trap: ecall from supervisor mode")
	default:
		kfmt.Printf("kernel trap: scause=0x%x\n", scause)
		panic("trap: unhandled trap in kernel mode")
	}
}

func checkKilled() {
	if CurrentKilled != nil && CurrentKilled() && ExitCurrent != nil {
		ExitCurrent(-1)
	}
}
