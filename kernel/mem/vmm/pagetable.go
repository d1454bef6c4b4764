package vmm

import (
	"sv39kernel/kernel"
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

// ErrInvalidMapping is returned when a map/unmap/copy operation cannot be
// satisfied: a missing intermediate table during a non-allocating walk, a
// target PTE that is already valid when mapping, or a PTE that is not a
// valid leaf when unmapping.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "invalid mapping"}

// PageTable is the root of an Sv39 three-level page table. The zero value
// is not usable; construct one with NewPageTable or AllocProcPagetable.
//
// All operations on one PageTable are externally serialized by the owning
// process's lock — PageTable does not lock internally. Cross-address-space
// operations (uvm_copy) take the other page table as an explicit argument
// and rely on the caller to have serialized both sides.
type PageTable struct {
	root pmm.Frame
}

// NewPageTable allocates and zeros a fresh root table.
func NewPageTable() *PageTable {
	f := pmm.Alloc()
	pmm.Zero(uint64(f.Address()), mem.PageSize)
	return &PageTable{root: f}
}

// Root returns the physical frame backing the page table's root.
func (pt *PageTable) Root() pmm.Frame { return pt.root }

// walk descends the three Sv39 levels for va, returning the physical
// address of the leaf PTE. When alloc is true, a missing non-leaf level is
// given a freshly allocated, zeroed child table installed with
// {Valid, R=W=X=0}; when alloc is false, a missing level fails with
// ErrInvalidMapping.
func (pt *PageTable) walk(va mem.VirtAddr, alloc bool) (uint64, error) {
	tbl := pt.root
	for level := 2; level > 0; level-- {
		idx := va.VPN(level)
		entry := readPTE(tbl, idx)

		if entry.valid() {
			if entry.isLeaf() {
				return 0, ErrInvalidMapping // a huge-page leaf where a table was expected
			}
			tbl = entry.frame()
			continue
		}

		if !alloc {
			return 0, ErrInvalidMapping
		}

		child := pmm.Alloc()
		pmm.Zero(uint64(child.Address()), mem.PageSize)
		writePTE(tbl, idx, makePTE(child, FlagValid))
		tbl = child
	}

	return entryAddr(tbl, va.VPN(0)), nil
}

// MapPages installs flags|Valid mappings from pa into [va, va+size) in
// page-size steps. va, pa and size must be page-aligned, and flags must
// contain at least one of Read, Write or Exec. If any page in the range is
// already mapped, every page mapped so far by this call is rolled back and
// ErrInvalidMapping is returned.
func (pt *PageTable) MapPages(va mem.VirtAddr, size uint64, pa mem.PhysAddr, flags Flags) error {
	if uint64(va)&mem.PageMask != 0 || uint64(pa)&mem.PageMask != 0 || size&mem.PageMask != 0 {
		panic("vmm: MapPages requires page-aligned va, pa and size")
	}
	if flags&(FlagRead|FlagWrite|FlagExec) == 0 {
		panic("vmm: MapPages requires at least one of R, W, X")
	}
	if size == 0 {
		return nil
	}

	npages := size / mem.PageSize
	var mapped uint64
	for i := uint64(0); i < npages; i++ {
		cur := mem.VirtAddr(uint64(va) + i*mem.PageSize)
		leaf, err := pt.walk(cur, true)
		if err != nil {
			pt.rollbackMapped(va, mapped)
			return err
		}
		if pte(pmm.ReadUint64(leaf)).valid() {
			pt.rollbackMapped(va, mapped)
			return ErrInvalidMapping
		}

		frame := pmm.FrameOf(mem.PhysAddr(uint64(pa) + i*mem.PageSize))
		pmm.WriteUint64(leaf, uint64(makePTE(frame, flags|FlagValid)))
		mapped++
	}

	return nil
}

func (pt *PageTable) rollbackMapped(va mem.VirtAddr, npages uint64) {
	if npages == 0 {
		return
	}
	pt.UnmapPages(va, npages, false)
}

// UnmapPages clears npages leaf mappings starting at va, which must be
// page-aligned. Every PTE in range must be a valid leaf. If freePhys is
// true, each backing frame is returned to the allocator; if false, the
// backing is left for whoever else references it (e.g. a uvm_copy sibling
// or a shared trampoline page).
func (pt *PageTable) UnmapPages(va mem.VirtAddr, npages uint64, freePhys bool) error {
	if uint64(va)&mem.PageMask != 0 {
		panic("vmm: UnmapPages requires page-aligned va")
	}

	for i := uint64(0); i < npages; i++ {
		cur := mem.VirtAddr(uint64(va) + i*mem.PageSize)
		leaf, err := pt.walk(cur, false)
		if err != nil {
			return err
		}
		entry := pte(pmm.ReadUint64(leaf))
		if !entry.valid() || !entry.isLeaf() {
			return ErrInvalidMapping
		}

		if freePhys {
			pmm.Dealloc(entry.frame())
		}
		pmm.WriteUint64(leaf, 0)
	}

	return nil
}

// AsSatp encodes the root page table's frame into Sv39 satp register
// format: mode 8 in the top 4 bits, the root PPN in the low 44 bits.
func (pt *PageTable) AsSatp() uint64 {
	const modeSv39 = uint64(8) << 60
	return modeSv39 | uint64(pt.root)
}
