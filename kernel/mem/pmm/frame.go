// Package pmm manages allocation of physical memory page frames. It is the
// bottom of the memory stack: the page-table engine in package vmm asks pmm
// for the physical frames it maps, and nothing in pmm depends on vmm.
package pmm

import (
	"math"

	"sv39kernel/kernel/mem"
)

// Frame identifies a physical memory page by its page number (address >>
// PageShift). Every frame handed out by this allocator is exactly one
// PageSize, so there is no page-order to encode alongside it.
type Frame uint64

// InvalidFrame is a sentinel Frame value that names no real frame. Alloc
// never returns it: exhaustion is fatal (see exhaustedFn).
const InvalidFrame = Frame(math.MaxUint64)

// Valid reports whether f is a real frame rather than InvalidFrame.
func (f Frame) Valid() bool { return f != InvalidFrame }

// Address returns the physical address of the start of this frame.
func (f Frame) Address() mem.PhysAddr { return mem.PhysAddr(uint64(f) << mem.PageShift) }

// FrameOf returns the Frame containing physical address pa.
func FrameOf(pa mem.PhysAddr) Frame { return Frame(uint64(pa) >> mem.PageShift) }
