package pmm

import (
	"sv39kernel/kernel"
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/sync"
)

// Allocator hands out physical page frames from the range [base, limit) of
// Arena. It tracks a monotonic cursor — frames below the cursor have been
// handed out at least once — plus a LIFO stack of frames that were freed
// and can be reused before the cursor advances further. Exhaustion is
// fatal: there is no fallback once the last page of physical memory is
// spoken for.
type Allocator struct {
	lock   sync.Spinlock
	base   Frame
	cursor Frame
	limit  Frame
	free   []Frame
	issued map[Frame]bool // live frames, used to reject double-free
}

var global Allocator

// exhaustedFn is called when Alloc cannot satisfy a request. It defaults to
// kernel.Panic (exhaustion is fatal) and is swapped out in tests so the
// exhaustion path is observable without halting the test binary.
var exhaustedFn = func() {
	kernel.Panic(&kernel.Error{Module: "pmm", Message: "physical memory exhausted"})
}

// Init prepares the global allocator to hand out frames covering the
// physical range [base, limit), and sizes Arena to back limit frames of
// simulated RAM. base and limit are frame numbers, not byte addresses.
func Init(base, limit Frame) {
	global = Allocator{
		base:   base,
		cursor: base,
		limit:  limit,
		issued: make(map[Frame]bool),
	}
	Arena = make([]byte, uint64(limit)<<mem.PageShift)
}

// Alloc reserves and returns one physical frame. The frame's contents are
// not zeroed; callers that need a zeroed page call Zero(frame) themselves,
// matching the core's "returned frames are zeroed by the caller" contract.
func Alloc() Frame {
	global.lock.Acquire()
	defer global.lock.Release()

	if n := len(global.free); n > 0 {
		f := global.free[n-1]
		global.free = global.free[:n-1]
		global.issued[f] = true
		return f
	}

	if global.cursor >= global.limit {
		exhaustedFn()
		panic("pmm: unreachable, exhaustedFn must not return")
	}

	f := global.cursor
	global.cursor++
	global.issued[f] = true
	return f
}

// Dealloc returns a frame to the allocator. It panics if the frame was
// never issued or has already been freed, matching the double-free
// invariant the core requires: dealloc of an unallocated or already-freed
// frame is a programming error, not a recoverable condition.
func Dealloc(f Frame) {
	global.lock.Acquire()
	defer global.lock.Release()

	if !global.issued[f] {
		panic("pmm: double-free or dealloc of unallocated frame")
	}
	delete(global.issued, f)
	global.free = append(global.free, f)
}

// Live returns the number of currently-issued (not yet freed) frames. It
// exists for tests asserting the frame-accounting invariant: issued minus
// returned equals live.
func Live() int {
	global.lock.Acquire()
	defer global.lock.Release()
	return len(global.issued)
}
