package proc

import (
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

// AllocTask creates a new secondary thread inside p: a fresh tid, a kernel
// stack, an owned trapframe frame mapped into p's (shared) address space at
// the fixed VA that tid computes to, and an Available→Ready task record
// appended to p.Tasks. The caller must hold p.Excl.
func AllocTask(p *Process) (*Task, error) {
	tid := AllocTid()
	pos := len(p.Tasks) + 1 // +1 since the main thread occupies position 0

	ksFrame := pmm.Alloc()
	pmm.Zero(uint64(ksFrame.Address()), mem.PageSize)

	tfFrame := pmm.Alloc()
	pmm.Zero(uint64(tfFrame.Address()), mem.PageSize)

	if err := p.PageTable.MapTrapframe(tid, tfFrame.Address()); err != nil {
		pmm.Dealloc(tfFrame)
		pmm.Dealloc(ksFrame)
		FreeTid(tid)
		return nil, err
	}

	t := &Task{
		Tid:             tid,
		Pos:             pos,
		ProcPid:         p.Pid,
		KernelStackBase: uint64(ksFrame.Address()),
		Trapframe:       trapframeAt(tfFrame.Address()),
		status:          Ready,
	}
	t.context.Sp = t.KernelStackBase + mem.PageSize

	p.Tasks = append(p.Tasks, t)
	return t, nil
}

// FreeTask unmaps and frees t's trapframe page and kernel stack, and
// returns its tid. It does not touch the process's address space beyond
// that one page, matching the core's "a child Task ... closes out by
// unmapping only its trapframe page; it does not tear the address space
// down" rule. The caller must hold p.Excl and must have already removed t
// from p.Tasks.
func FreeTask(p *Process, t *Task) {
	p.PageTable.UnmapTrapframe(t.Tid)
	pmm.Dealloc(pmm.FrameOf(mem.PhysAddr(t.KernelStackBase)))
	FreeTid(t.Tid)
}
