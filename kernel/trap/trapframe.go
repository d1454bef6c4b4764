// Package trap defines the fixed-layout TrapFrame every user task owns, the
// Scause decoding used to classify why a hart trapped into supervisor mode,
// and the user_trap/kernel_trap dispatch (dispatch.go). It imports neither
// package sched nor package syscall: the dispatch acts on the running task
// through function-var hooks those packages install, and they import this
// package rather than the reverse.
package trap

// TrapFrame is mapped at a fixed, per-thread virtual address (package
// vmm.TrapframeVA) in every user address space. The trampoline saves user
// registers here on entry and restores them from here on return; it is one
// page, and its VA is known to the trampoline at assemble time because it
// is computed purely from the task's tid.
type TrapFrame struct {
	// Fields restored by the trampoline before it returns to supervisor
	// mode via user_trap, in the order real assembly would spill them.
	KernelSatp  uint64 // root SATP of the kernel page table
	KernelSp    uint64 // top of this task's kernel stack
	KernelTrap  uint64 // address of user_trap
	KernelHartID uint64

	Epc uint64 // saved user pc; where user_trap_return resumes execution

	// Saved user integer registers x1..x31, indexed by register number so
	// Regs[2] is sp, Regs[10] is a0, Regs[17] is a7, etc.; Regs[0] (x0,
	// hard-wired zero) is unused.
	Regs [32]uint64
}

// A0..A7 index TrapFrame.Regs for the syscall ABI: selector in a7,
// arguments in a0..a5, return value written back to a0.
const (
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
	RegA3 = 13
	RegA4 = 14
	RegA5 = 15
	RegA7 = 17
)

// Arg returns the i'th syscall argument (0-indexed, a0..a5).
func (tf *TrapFrame) Arg(i int) uint64 { return tf.Regs[RegA0+i] }

// SetReturn writes a syscall's return value into a0, per the ABI's
// convention of -1 (as its two's-complement uint64 encoding) on error.
func (tf *TrapFrame) SetReturn(v int64) { tf.Regs[RegA0] = uint64(v) }

// Selector returns the syscall number the user program placed in a7.
func (tf *TrapFrame) Selector() uint64 { return tf.Regs[RegA7] }
