package sync

import (
	"testing"

	"sv39kernel/kernel/cpu"
)

// resetHart restores hart 0 as the active hart and clears its interrupt
// bookkeeping between subtests, since cpu's per-hart state is package-global.
func resetHart(t *testing.T) {
	t.Helper()
	cpu.SetHartID(0)
	for cpu.Current().IntrDepth() > 0 {
		cpu.Current().EnableInterrupts()
	}
}

func TestSpinlockAcquireRelease(t *testing.T) {
	resetHart(t)
	l := NewSpinlock("test")

	l.Acquire()
	if !l.Held() {
		t.Fatal("expected lock to be held after Acquire")
	}
	if l.TryToAcquire() {
		t.Fatal("expected TryToAcquire to fail while lock is held")
	}
	l.Release()
	if l.Held() {
		t.Fatal("expected lock to be free after Release")
	}
}

func TestSpinlockRecursiveAcquirePanics(t *testing.T) {
	resetHart(t)
	l := NewSpinlock("test")
	l.Acquire()
	defer l.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("expected recursive Acquire to panic")
		}
	}()
	l.Acquire()
}

func TestSpinlockReleaseWithoutHoldingPanics(t *testing.T) {
	resetHart(t)
	l := NewSpinlock("test")

	defer func() {
		if recover() == nil {
			t.Fatal("expected Release of an unheld lock to panic")
		}
	}()
	l.Release()
}

func TestSpinlockNestsInterruptDisable(t *testing.T) {
	resetHart(t)
	a, b := NewSpinlock("a"), NewSpinlock("b")

	a.Acquire()
	if depth := cpu.Current().IntrDepth(); depth != 1 {
		t.Fatalf("expected interrupt-disable depth 1; got %d", depth)
	}

	b.Acquire()
	if depth := cpu.Current().IntrDepth(); depth != 2 {
		t.Fatalf("expected interrupt-disable depth 2; got %d", depth)
	}

	b.Release()
	if depth := cpu.Current().IntrDepth(); depth != 1 {
		t.Fatalf("expected interrupt-disable depth 1 after inner release; got %d", depth)
	}

	a.Release()
	if depth := cpu.Current().IntrDepth(); depth != 0 {
		t.Fatalf("expected interrupt-disable depth 0 after outer release; got %d", depth)
	}
}

func TestSpinlockOwnershipIsPerHart(t *testing.T) {
	resetHart(t)
	l := NewSpinlock("test")

	cpu.SetHartID(0)
	l.Acquire()

	cpu.SetHartID(1)
	if l.Held() {
		t.Fatal("expected a different hart to not observe itself as the owner")
	}
	if l.TryToAcquire() {
		t.Fatal("expected TryToAcquire from another hart to fail while held")
	}

	cpu.SetHartID(0)
	l.Release()
	resetHart(t)
}
