package proc

import "sv39kernel/kernel/sync"

// idAllocator is a recycling id allocator: a monotonic counter plus a LIFO
// free list. Alloc pops the free list if non-empty, else bumps the
// counter; Free pushes the id back. The same shape serves both the pid and
// tid allocators.
type idAllocator struct {
	lock   sync.Spinlock
	next   int
	free   []int
	issued map[int]bool
}

func newIDAllocator(start int) *idAllocator {
	return &idAllocator{next: start, issued: make(map[int]bool)}
}

func (a *idAllocator) Alloc() int {
	a.lock.Acquire()
	defer a.lock.Release()

	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.issued[id] = true
		return id
	}

	id := a.next
	a.next++
	a.issued[id] = true
	return id
}

func (a *idAllocator) Free(id int) {
	a.lock.Acquire()
	defer a.lock.Release()

	if !a.issued[id] {
		panic("proc: double-free of id")
	}
	delete(a.issued, id)
	a.free = append(a.free, id)
}

var (
	pidAlloc = newIDAllocator(1)
	tidAlloc = newIDAllocator(1)
)

// AllocPid reserves a fresh process id.
func AllocPid() int { return pidAlloc.Alloc() }

// FreePid returns pid to the free list. It panics on double-free.
func FreePid(pid int) { pidAlloc.Free(pid) }

// AllocTid reserves a fresh thread id, used to index the fixed trapframe
// VA region as well as to identify the task.
func AllocTid() int { return tidAlloc.Alloc() }

// FreeTid returns tid to the free list. It panics on double-free.
func FreeTid(tid int) { tidAlloc.Free(tid) }
