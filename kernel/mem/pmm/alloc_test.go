package pmm

import (
	"math/rand"
	"testing"
)

func TestAllocDeallocConservation(t *testing.T) {
	Init(0, 64)

	live := map[Frame]bool{}
	for i := 0; i < 1000; i++ {
		if len(live) == 0 || rand.Intn(2) == 0 {
			if int(global.cursor-global.base) >= 64 && len(global.free) == 0 {
				continue
			}
			f := Alloc()
			if live[f] {
				t.Fatalf("Alloc returned a frame already live: %d", f)
			}
			live[f] = true
		} else {
			for f := range live {
				Dealloc(f)
				delete(live, f)
				break
			}
		}

		if got, exp := Live(), len(live); got != exp {
			t.Fatalf("expected Live() == %d; got %d", exp, got)
		}
	}
}

func TestAllocRecyclesBeforeBumpingCursor(t *testing.T) {
	Init(0, 4)

	a := Alloc()
	b := Alloc()
	Dealloc(a)

	cursorBefore := global.cursor
	c := Alloc()
	if c != a {
		t.Fatalf("expected Alloc to recycle frame %d (LIFO); got %d", a, c)
	}
	if global.cursor != cursorBefore {
		t.Fatalf("expected cursor to stay at %d when recycling; got %d", cursorBefore, global.cursor)
	}

	_ = b
}

func TestDeallocUnallocatedPanics(t *testing.T) {
	Init(0, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Dealloc of a never-allocated frame to panic")
		}
	}()
	Dealloc(Frame(3))
}

func TestDeallocTwicePanics(t *testing.T) {
	Init(0, 4)
	f := Alloc()
	Dealloc(f)

	defer func() {
		if recover() == nil {
			t.Fatal("expected double Dealloc to panic")
		}
	}()
	Dealloc(f)
}

func TestAllocExhaustionPanics(t *testing.T) {
	Init(0, 2)
	orig := exhaustedFn
	defer func() { exhaustedFn = orig }()
	exhaustedFn = func() { panic("pmm: physical memory exhausted") }

	defer func() {
		if recover() == nil {
			t.Fatal("expected exhaustion to panic")
		}
	}()

	Alloc()
	Alloc()
	Alloc() // exhausted
}
