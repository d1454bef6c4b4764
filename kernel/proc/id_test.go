package proc

import "testing"

func TestIDAllocatorRecyclesBeforeBumping(t *testing.T) {
	a := newIDAllocator(1)

	first := a.Alloc()
	second := a.Alloc()
	a.Free(first)

	nextBefore := a.next
	third := a.Alloc()
	if third != first {
		t.Fatalf("expected Alloc to recycle %d; got %d", first, third)
	}
	if a.next != nextBefore {
		t.Fatalf("expected recycling to not bump the counter; next changed from %d to %d", nextBefore, a.next)
	}

	_ = second
}

func TestIDAllocatorDoubleFreePanics(t *testing.T) {
	a := newIDAllocator(1)
	id := a.Alloc()
	a.Free(id)

	defer func() {
		if recover() == nil {
			t.Fatal("expected double Free to panic")
		}
	}()
	a.Free(id)
}

func TestIDAllocatorFreeUnallocatedPanics(t *testing.T) {
	a := newIDAllocator(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Free of a never-allocated id to panic")
		}
	}()
	a.Free(42)
}
