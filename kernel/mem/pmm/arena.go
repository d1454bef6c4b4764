package pmm

import "encoding/binary"

// Arena simulates physical RAM as a flat byte slice. The original source
// this core is modeled on addresses physical memory directly (Sv39 needs no
// x86-style recursive page-table mapping trick to reach a PTE it isn't
// currently walking through), so page tables in package vmm read and write
// their entries straight through Arena at a frame's physical offset via
// encoding/binary, exactly as they would read/write real RAM through a
// direct physical mapping. This is also what makes the whole kernel core
// testable with `go test`: no emulator, no real hart, just a byte slice.
var Arena []byte

// ReadUint64 reads a little-endian uint64 from Arena at physical address pa.
func ReadUint64(pa uint64) uint64 {
	return binary.LittleEndian.Uint64(Arena[pa : pa+8])
}

// WriteUint64 writes a little-endian uint64 to Arena at physical address pa.
func WriteUint64(pa uint64, v uint64) {
	binary.LittleEndian.PutUint64(Arena[pa:pa+8], v)
}

// Bytes returns the n-byte slice of Arena starting at physical address pa,
// aliasing the arena's backing array. Callers use this to zero a freshly
// allocated frame or to copy user memory in copy_in/copy_out.
func Bytes(pa uint64, n int) []byte {
	return Arena[pa : pa+uint64(n)]
}

// Zero clears n bytes of Arena starting at pa.
func Zero(pa uint64, n int) {
	b := Bytes(pa, n)
	for i := range b {
		b[i] = 0
	}
}
