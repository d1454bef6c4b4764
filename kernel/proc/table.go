package proc

import (
	"sync/atomic"
	"unsafe"

	"sv39kernel/kernel"
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
	"sv39kernel/kernel/mem/vmm"
	"sv39kernel/kernel/sem"
	"sv39kernel/kernel/trap"
)

// NPROC is the size of the fixed process table.
const NPROC = vmm.NPROC

var table [NPROC]Process

// ErrNoFreeSlot is returned by AllocProc when every process slot is in use.
var ErrNoFreeSlot = &kernel.Error{Module: "proc", Message: "no free process slot"}

// trampolinePA is the physical address of the one shared trampoline page
// installed once at boot. It is set by Init and baked into every process's
// page table by AllocProc.
var trampolinePA mem.PhysAddr

// Init records the physical address of the shared trampoline page. Package
// boot calls this once before the first process is created.
func Init(tramplinePA mem.PhysAddr) {
	trampolinePA = tramplinePA
}

// trapframeAt reinterprets the page at pa as a *trap.TrapFrame. This relies
// on the same direct-physical-access model package pmm uses for page table
// entries: the trapframe is plain data living in simulated RAM, so the
// kernel (and the trampoline, on real hardware) reads and writes it
// in-place rather than through any copy.
func trapframeAt(pa mem.PhysAddr) *trap.TrapFrame {
	return (*trap.TrapFrame)(unsafe.Pointer(&pmm.Bytes(uint64(pa), int(unsafe.Sizeof(trap.TrapFrame{})))[0]))
}

// AllocProc scans the process table for an UNUSED slot, reserves it and
// returns it still locked (Excl held) so the caller can finish
// initialization (copying an initial image, say) without another hart
// observing a half-built process. On any failure partway through, every
// resource acquired so far is released and the slot is returned to UNUSED.
func AllocProc() (*Process, error) {
	var p *Process
	for i := range table {
		cand := &table[i]
		cand.Excl.Acquire()
		if cand.state == Unused {
			p = cand
			break
		}
		cand.Excl.Release()
	}
	if p == nil {
		return nil, ErrNoFreeSlot
	}

	pid := AllocPid()
	tid := AllocTid()

	tfFrame := pmm.Alloc()
	pmm.Zero(uint64(tfFrame.Address()), mem.PageSize)

	pt, err := vmm.AllocProcPagetable(trampolinePA, tfFrame.Address(), tid)
	if err != nil {
		pmm.Dealloc(tfFrame)
		FreeTid(tid)
		FreePid(pid)
		p.Excl.Release()
		return nil, err
	}

	ksFrame := pmm.Alloc()
	pmm.Zero(uint64(ksFrame.Address()), mem.PageSize)

	p.Pid = pid
	p.ParentPid = 0
	p.state = Allocated
	p.ExitStatus = 0
	p.SleepChan = 0
	p.MainTid = tid
	p.KernelStackBase = uint64(ksFrame.Address())
	p.UstackBase = 0
	p.Sz = 0
	// p.Context.Ra is left zero here; the caller sets it once the initial
	// image's entry point is known (fork_return for a forked child, the
	// embedded initcode entry for the first process).
	p.Context.Sp = p.KernelStackBase + mem.PageSize
	p.Name = ""
	p.OpenFiles = [maxOpenFiles]bool{}
	p.PageTable = pt
	p.MainTrapframe = trapframeAt(tfFrame.Address())
	p.Children = nil
	p.Tasks = nil
	p.Sems = [8]*sem.Semaphore{}
	atomic.StoreInt32(&p.killed, 0)

	return p, nil
}

// Lookup returns the table slot for pid, or nil if no live slot (state !=
// UNUSED) currently holds that pid. The caller is responsible for its own
// locking of the returned slot.
func Lookup(pid int) *Process {
	for i := range table {
		cand := &table[i]
		if cand.Pid == pid && cand.state != Unused {
			return cand
		}
	}
	return nil
}

// FreeProc tears down a reaped ZOMBIE process's resources and returns its
// slot to UNUSED: the address space, the main trapframe frame, the kernel
// stack frame, and the pid itself.
func FreeProc(p *Process) {
	p.Excl.Acquire()
	defer p.Excl.Release()

	p.PageTable.DeallocProcPagetable(p.Sz, p.MainTid)
	pmm.Dealloc(pmm.FrameOf(mem.PhysAddr(p.KernelStackBase)))

	FreeTid(p.MainTid)
	FreePid(p.Pid)

	p.state = Unused
	p.Pid = 0
	p.PageTable = nil
	p.MainTrapframe = nil
}
