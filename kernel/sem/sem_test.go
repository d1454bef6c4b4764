package sem

import (
	"testing"

	"sv39kernel/kernel/sync"
)

// fakeScheduler gives tests a minimal, synchronous stand-in for the real
// scheduler's sleep/wakeup protocol: Down calls SleepFn, which here just
// releases the guard and returns immediately (as if it were woken right
// away), since sem's own tests are about count/FIFO bookkeeping, not
// context switching.
type fakeScheduler struct {
	blocked []TaskRef
	woken   []TaskRef
}

func installFakeScheduler(t *testing.T) *fakeScheduler {
	t.Helper()
	fs := &fakeScheduler{}
	SleepFn = func(ch uintptr, guard *sync.Spinlock) {
		guard.Release()
	}
	WakeFn = func(tr TaskRef) { fs.woken = append(fs.woken, tr) }
	t.Cleanup(func() { SleepFn, WakeFn = nil, nil })
	return fs
}

func TestUpDownCountInvariant(t *testing.T) {
	installFakeScheduler(t)
	s := New(3)

	s.Up()
	s.Up()
	if got, want := s.Count(), 5; got != want {
		t.Fatalf("expected count %d; got %d", want, got)
	}

	s.Down(TaskRef{Pid: 1, Tid: 1})
	if got, want := s.Count(), 4; got != want {
		t.Fatalf("expected count %d; got %d", want, got)
	}
}

func TestDownOnZeroBlocksAndUpResumesOneWaiter(t *testing.T) {
	fs := installFakeScheduler(t)
	s := New(0)

	waiter := TaskRef{Pid: 7, Tid: 1}
	s.Down(waiter)
	if got, want := s.Count(), -1; got != want {
		t.Fatalf("expected count %d while blocked; got %d", want, got)
	}
	if len(fs.woken) != 0 {
		t.Fatalf("expected no wakeups before Up; got %v", fs.woken)
	}

	s.Up()
	if got, want := s.Count(), 0; got != want {
		t.Fatalf("expected count %d after Up; got %d", want, got)
	}
	if len(fs.woken) != 1 || fs.woken[0] != waiter {
		t.Fatalf("expected exactly the blocked waiter %v to be woken; got %v", waiter, fs.woken)
	}
}

func TestFIFOFairness(t *testing.T) {
	fs := installFakeScheduler(t)
	s := New(0)

	a := TaskRef{Pid: 1, Tid: 1}
	b := TaskRef{Pid: 2, Tid: 1}
	c := TaskRef{Pid: 3, Tid: 1}

	s.Down(a)
	s.Down(b)
	s.Down(c)

	s.Up()
	s.Up()
	s.Up()

	want := []TaskRef{a, b, c}
	if len(fs.woken) != len(want) {
		t.Fatalf("expected %d wakeups; got %d", len(want), len(fs.woken))
	}
	for i, tr := range want {
		if fs.woken[i] != tr {
			t.Fatalf("expected wakeup order %v; got %v", want, fs.woken)
		}
	}
}

func TestUpDownNetCountAcrossManyOps(t *testing.T) {
	installFakeScheduler(t)
	s := New(2)

	ups, downs := 10, 5
	for i := 0; i < ups; i++ {
		s.Up()
	}
	for i := 0; i < downs; i++ {
		s.Down(TaskRef{Pid: i, Tid: 1})
	}

	if got, want := s.Count(), 2+ups-downs; got != want {
		t.Fatalf("expected count (initial + ups - downs) = %d; got %d", want, got)
	}
}
