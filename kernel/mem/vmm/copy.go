package vmm

import (
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

// translate resolves va to its backing physical address, failing unless
// va's page is mapped by a valid leaf PTE (walk never allocates here:
// copy_in/copy_out must not create mappings as a side effect).
func (pt *PageTable) translate(va mem.VirtAddr) (mem.PhysAddr, error) {
	leaf, err := pt.walk(va.PageRoundDown(), false)
	if err != nil {
		return 0, err
	}
	entry := pte(pmm.ReadUint64(leaf))
	if !entry.valid() || !entry.isLeaf() {
		return 0, ErrInvalidMapping
	}
	return mem.PhysAddr(uint64(entry.addr()) + va.Offset()), nil
}

// CopyIn copies n bytes from srcVA in this address space into the kernel
// byte slice dst. It walks without allocating and fails at the first page
// that is not backed by a valid mapping, leaving dst's unwritten tail
// untouched.
func (pt *PageTable) CopyIn(srcVA mem.VirtAddr, dst []byte) error {
	n := len(dst)
	for copied := 0; copied < n; {
		va := mem.VirtAddr(uint64(srcVA) + uint64(copied))
		pa, err := pt.translate(va)
		if err != nil {
			return err
		}

		pageRemain := mem.PageSize - va.Offset()
		want := uint64(n - copied)
		if want > pageRemain {
			want = pageRemain
		}

		copy(dst[copied:uint64(copied)+want], pmm.Bytes(uint64(pa), int(want)))
		copied += int(want)
	}
	return nil
}

// CopyOut copies the kernel byte slice src into dstVA in this address
// space, with the same per-page failure semantics as CopyIn.
func (pt *PageTable) CopyOut(src []byte, dstVA mem.VirtAddr) error {
	n := len(src)
	for copied := 0; copied < n; {
		va := mem.VirtAddr(uint64(dstVA) + uint64(copied))
		pa, err := pt.translate(va)
		if err != nil {
			return err
		}

		pageRemain := mem.PageSize - va.Offset()
		want := uint64(n - copied)
		if want > pageRemain {
			want = pageRemain
		}

		copy(pmm.Bytes(uint64(pa), int(want)), src[copied:uint64(copied)+want])
		copied += int(want)
	}
	return nil
}

// CopyInStr copies bytes from srcVA into buf until a NUL byte is found or
// buf fills up, stopping one short of the NUL (buf does not retain it). It
// returns the number of bytes copied and whether a NUL terminator was
// found before buf was exhausted.
func (pt *PageTable) CopyInStr(srcVA mem.VirtAddr, buf []byte) (n int, terminated bool, err error) {
	for n < len(buf) {
		va := mem.VirtAddr(uint64(srcVA) + uint64(n))
		pa, terr := pt.translate(va)
		if terr != nil {
			return n, false, terr
		}

		pageRemain := int(mem.PageSize - va.Offset())
		chunk := pmm.Bytes(uint64(pa), pageRemain)
		for _, b := range chunk {
			if n >= len(buf) {
				return n, false, nil
			}
			if b == 0 {
				return n, true, nil
			}
			buf[n] = b
			n++
		}
	}
	return n, false, nil
}
