package vmm

import "sv39kernel/kernel/mem/pmm"

// freeTable recursively frees every non-leaf table reachable from tbl at
// the given level (2 for the root) and finally tbl itself. It assumes every
// leaf mapping under tbl has already been unmapped by the caller — any leaf
// PTE still present here indicates a caller bug, not a condition to paper
// over, so it panics rather than silently leaking or double-freeing a live
// user frame.
func (pt *PageTable) freeTable(tbl pmm.Frame, level int) {
	if level > 0 {
		for i := uint64(0); i < 512; i++ {
			entry := readPTE(tbl, i)
			if !entry.valid() {
				continue
			}
			if entry.isLeaf() {
				panic("vmm: freeTable found a live leaf mapping; caller must unmap first")
			}
			pt.freeTable(entry.frame(), level-1)
		}
	}
	pmm.Dealloc(tbl)
}
