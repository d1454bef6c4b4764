package vmm

import (
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

// userPageFlags is the permission set every ordinary user page carries:
// readable, writable, executable and accessible from user mode. The core
// does not distinguish text/data/stack protection within the core's scope
// (the ELF loader, out of scope, is the only component that would want
// finer-grained permissions).
const userPageFlags = FlagRead | FlagWrite | FlagExec | FlagUser

// UvmInit maps a single user page at va=0 and copies code into it. code
// must fit in one page; the core's only caller of this is the first
// process's initial image, which is small by construction.
func (pt *PageTable) UvmInit(code []byte) error {
	if len(code) > mem.PageSize {
		panic("vmm: UvmInit code does not fit in one page")
	}

	f := pmm.Alloc()
	pmm.Zero(uint64(f.Address()), mem.PageSize)
	copy(pmm.Bytes(uint64(f.Address()), len(code)), code)

	return pt.MapPages(0, mem.PageSize, f.Address(), userPageFlags)
}

// UvmAlloc extends a user address space from oldSz to newSz bytes by
// allocating and mapping fresh zeroed frames for every page in
// [ceil(oldSz), ceil(newSz)). It returns the new size, or an error (with no
// frames leaked) if allocation or mapping fails partway through.
func (pt *PageTable) UvmAlloc(oldSz, newSz uint64) (uint64, error) {
	if newSz <= oldSz {
		return oldSz, nil
	}

	start := mem.PageRoundUp(oldSz)
	end := mem.PageRoundUp(newSz)

	for va := start; va < end; va += mem.PageSize {
		f := pmm.Alloc()
		pmm.Zero(uint64(f.Address()), mem.PageSize)
		if err := pt.MapPages(mem.VirtAddr(va), mem.PageSize, f.Address(), userPageFlags); err != nil {
			pmm.Dealloc(f)
			pt.UvmDealloc(va, start)
			return oldSz, err
		}
	}

	return newSz, nil
}

// UvmDealloc shrinks a user address space from oldSz to newSz bytes,
// unmapping and freeing every page in [ceil(newSz), ceil(oldSz)). It is the
// inverse of UvmAlloc.
func (pt *PageTable) UvmDealloc(oldSz, newSz uint64) uint64 {
	if newSz >= oldSz {
		return oldSz
	}

	start := mem.PageRoundUp(newSz)
	end := mem.PageRoundUp(oldSz)
	if end <= start {
		return newSz
	}

	npages := (end - start) / mem.PageSize
	pt.UnmapPages(mem.VirtAddr(start), npages, true)

	return newSz
}

// UvmCopy duplicates the mappings of [0, sz) from pt into dst, allocating a
// fresh physical frame per page in dst and copying the backing bytes so
// that subsequent writes through either side do not propagate to the
// other.
func (pt *PageTable) UvmCopy(dst *PageTable, sz uint64) error {
	end := mem.PageRoundUp(sz)

	var mappedInDst uint64
	for va := uint64(0); va < end; va += mem.PageSize {
		leaf, err := pt.walk(mem.VirtAddr(va), false)
		if err != nil {
			dst.UnmapPages(0, mappedInDst, true)
			return err
		}
		entry := pte(pmm.ReadUint64(leaf))
		if !entry.valid() || !entry.isLeaf() {
			dst.UnmapPages(0, mappedInDst, true)
			return ErrInvalidMapping
		}

		f := pmm.Alloc()
		copy(pmm.Bytes(uint64(f.Address()), mem.PageSize), pmm.Bytes(uint64(entry.addr()), mem.PageSize))

		if err := dst.MapPages(mem.VirtAddr(va), mem.PageSize, f.Address(), entry.flags()&^FlagValid|FlagValid); err != nil {
			pmm.Dealloc(f)
			dst.UnmapPages(0, mappedInDst, true)
			return err
		}
		mappedInDst++
	}

	return nil
}
