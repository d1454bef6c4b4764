// Package syscall owns the fixed syscall numbering table bundled user
// programs are compiled against, and the dispatch-hook registration point
// package trap's user_trap calls into. Handler bodies (fork, exec, the
// filesystem calls, …) are out of the core's scope per spec §1's Non-goals;
// what lives here is only the numbering, the registration surface, and the
// "unknown syscall number" fatal case.
package syscall

import "sv39kernel/kernel/trap"

// Numbering matches the bundled user programs byte-for-byte; it MUST NOT be
// renumbered.
const (
	SysFork = iota + 1
	SysExit
	SysWait
	SysPipe
	SysRead
	SysKill
	SysExec
	SysFstat
	SysChdir
	SysDup
	SysGetpid
	SysSbrk
	SysSleep
	SysUptime
	SysOpen
	SysWrite
	SysMknod
	SysUnlink
	SysLink
	SysMkdir
	SysClose
	SysGetmtime
	SysWaitpid
	SysThreadCreate
	SysThreadCount
	SysThreadWaittid
	SysGettid
	SysSemaphoreCreate
	SysSemaphoreUp
	SysSemaphoreDown
)

// Open flag bits, per spec §6.
const (
	ORdonly = 0x000
	OWronly = 0x001
	ORdwr   = 0x002
	OCreate = 0x200
	OTrunc  = 0x400
)

// Handler is a syscall body: given the trapframe of the calling task, it
// returns the value to write into a0 and whether the call succeeded. On
// failure, Dispatch writes -1 to a0 regardless of the returned value.
type Handler func(tf *trap.TrapFrame) (result int64, ok bool)

var table [SysSemaphoreDown + 1]Handler

// Register installs fn as the handler for syscall number num. This core
// itself registers no handlers; numbers with no registered handler fail
// with -1, matching an unimplemented-but-numbered syscall rather than a
// fatal unknown-number trap.
func Register(num int, fn Handler) {
	table[num] = fn
}

// Dispatch looks up tf's syscall selector (a7) and invokes its handler,
// writing the result (or -1) to a0. It reports false for a selector outside
// the numbering table entirely, which user_trap treats as the fatal
// "unknown syscall number" case per spec §7 tier 3; a selector inside the
// table with no registered handler yields the ordinary -1-to-user failure,
// tier 1/2.
func Dispatch(tf *trap.TrapFrame) (known bool) {
	num := int(tf.Selector())
	if num < SysFork || num > SysSemaphoreDown {
		return false
	}
	fn := table[num]
	if fn == nil {
		tf.SetReturn(-1)
		return true
	}
	result, ok := fn(tf)
	if !ok {
		result = -1
	}
	tf.SetReturn(result)
	return true
}

func init() {
	trap.DispatchSyscallFn = Dispatch
}
