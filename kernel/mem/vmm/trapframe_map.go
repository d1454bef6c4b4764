package vmm

import "sv39kernel/kernel/mem"

// MapTrapframe maps tid's fixed trapframe VA to physical frame pa,
// read+write, User=0 (the trampoline, running in supervisor mode while it
// holds the trapframe, is the only thing that touches it directly).
func (pt *PageTable) MapTrapframe(tid int, pa mem.PhysAddr) error {
	return pt.MapPages(TrapframeVA(tid), mem.PageSize, pa, FlagRead|FlagWrite)
}

// UnmapTrapframe unmaps and frees tid's trapframe page.
func (pt *PageTable) UnmapTrapframe(tid int) error {
	return pt.UnmapPages(TrapframeVA(tid), 1, true)
}
