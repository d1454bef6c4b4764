// Package vmm implements the Sv39 page-table engine: three-level walks,
// range map/unmap, cross-address-space copies, and user address-space
// construction/teardown. It is the physical-memory client of package pmm
// and has no notion of processes, tasks or scheduling — callers serialize
// access to one page table themselves (the owning process's lock), per the
// core's concurrency contract.
package vmm

import (
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

// Flags holds the low bits of a leaf or non-leaf page table entry.
type Flags uint8

const (
	FlagValid Flags = 1 << iota
	FlagRead
	FlagWrite
	FlagExec
	FlagUser
	FlagGlobal
	FlagAccessed
	FlagDirty
)

// pte is a single Sv39 page table entry: a 10-bit flags field followed by a
// 44-bit physical page number, stored as a little-endian uint64 in the
// owning table's backing frame.
type pte uint64

const (
	ptePPNShift = 10
	ptePPNMask  = (uint64(1) << 44) - 1
	pteFlagMask = uint64(1)<<ptePPNShift - 1
)

func (e pte) flags() Flags  { return Flags(uint64(e) & pteFlagMask) }
func (e pte) valid() bool   { return e.flags()&FlagValid != 0 }
func (e pte) isLeaf() bool  { return e.flags()&(FlagRead|FlagWrite|FlagExec) != 0 }
func (e pte) ppn() uint64   { return (uint64(e) >> ptePPNShift) & ptePPNMask }
func (e pte) frame() pmm.Frame { return pmm.Frame(e.ppn()) }

func (e pte) addr() mem.PhysAddr { return mem.PhysAddr(e.ppn() << mem.PageShift) }

func makePTE(f pmm.Frame, flags Flags) pte {
	return pte(uint64(f)<<ptePPNShift | uint64(flags))
}

// entryAddr returns the physical address of the index'th entry of the page
// table stored in frame tbl.
func entryAddr(tbl pmm.Frame, index uint64) uint64 {
	return uint64(tbl.Address()) + index*8
}

func readPTE(tbl pmm.Frame, index uint64) pte {
	return pte(pmm.ReadUint64(entryAddr(tbl, index)))
}

func writePTE(tbl pmm.Frame, index uint64, e pte) {
	pmm.WriteUint64(entryAddr(tbl, index), uint64(e))
}
