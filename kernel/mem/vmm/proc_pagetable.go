package vmm

import (
	"sv39kernel/kernel/mem"
)

// AllocProcPagetable allocates a fresh root table for a new process and
// installs the two mappings every process's address space needs outside of
// its own program image: the shared trampoline page at the top of virtual
// memory, and this thread's trapframe immediately below the guard region.
// trampolinePA is the physical address of the one shared trampoline frame
// installed once at boot; trapframePA is the physical frame backing tid's
// own TrapFrame.
func AllocProcPagetable(trampolinePA, trapframePA mem.PhysAddr, tid int) (*PageTable, error) {
	pt := NewPageTable()

	if err := pt.MapPages(TrampolineVA, mem.PageSize, trampolinePA, FlagRead|FlagExec); err != nil {
		return nil, err
	}

	if err := pt.MapPages(TrapframeVA(tid), mem.PageSize, trapframePA, FlagRead|FlagWrite); err != nil {
		pt.UnmapPages(TrampolineVA, 1, false)
		pt.freeTable(pt.root, 2)
		return nil, err
	}

	return pt, nil
}

// DeallocProcPagetable tears down a process's address space: unmaps the
// trampoline (not freed — it is shared with every other process), unmaps
// and frees the main task's trapframe, frees every user page in [0, sz),
// then recursively frees all now-empty non-leaf tables including the root.
func (pt *PageTable) DeallocProcPagetable(sz uint64, mainTid int) {
	pt.UnmapPages(TrampolineVA, 1, false)
	pt.UnmapPages(TrapframeVA(mainTid), 1, true)
	pt.UvmDealloc(sz, 0)
	pt.freeTable(pt.root, 2)
}
