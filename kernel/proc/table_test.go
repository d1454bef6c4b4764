package proc

import (
	"testing"

	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
)

func setupTable(t *testing.T) {
	t.Helper()
	pmm.Init(0, 4096)
	tramp := pmm.Alloc()
	Init(tramp.Address())
	for i := range table {
		table[i] = Process{}
	}
	pidAlloc = newIDAllocator(1)
	tidAlloc = newIDAllocator(1)
}

func TestAllocProcReturnsLockedAllocatedSlot(t *testing.T) {
	setupTable(t)

	p, err := AllocProc()
	if err != nil {
		t.Fatalf("AllocProc: %v", err)
	}
	defer p.Excl.Release()

	if p.state != Allocated {
		t.Fatalf("expected state Allocated; got %v", p.state)
	}
	if p.PageTable == nil {
		t.Fatal("expected a page table to have been built")
	}
	if p.MainTrapframe == nil {
		t.Fatal("expected a trapframe to have been mapped")
	}
	if !p.Excl.Held() {
		t.Fatal("expected AllocProc to return with Excl held")
	}
}

func TestAllocProcFreeProcRoundTripLeaksNoFrames(t *testing.T) {
	setupTable(t)
	before := pmm.Live()

	p, err := AllocProc()
	if err != nil {
		t.Fatalf("AllocProc: %v", err)
	}
	p.Excl.Release()

	sz, err := p.PageTable.UvmAlloc(0, 2*mem.PageSize)
	if err != nil {
		t.Fatalf("UvmAlloc: %v", err)
	}
	p.Sz = sz

	FreeProc(p)

	// The shared trampoline frame was already live (and counted in
	// `before`) prior to AllocProc; FreeProc must return everything else
	// this process touched.
	if got, want := pmm.Live(), before; got != want {
		t.Fatalf("expected %d live frames after FreeProc; got %d", want, got)
	}
}

func TestAllocTaskAppendsToProcessTasks(t *testing.T) {
	setupTable(t)

	p, err := AllocProc()
	if err != nil {
		t.Fatalf("AllocProc: %v", err)
	}
	defer p.Excl.Release()

	task, err := AllocTask(p)
	if err != nil {
		t.Fatalf("AllocTask: %v", err)
	}
	if len(p.Tasks) != 1 || p.Tasks[0] != task {
		t.Fatalf("expected the new task to be appended to p.Tasks")
	}
	if task.Status() != Ready {
		t.Fatalf("expected a fresh task to be Ready; got %v", task.Status())
	}
	if task.Trapframe == nil {
		t.Fatal("expected the task to own a mapped trapframe")
	}
}

func TestKilledFlagReadableWithoutLock(t *testing.T) {
	setupTable(t)
	p, err := AllocProc()
	if err != nil {
		t.Fatalf("AllocProc: %v", err)
	}
	p.Excl.Release()

	if p.Killed() {
		t.Fatal("expected a fresh process to not be killed")
	}
	p.Kill()
	if !p.Killed() {
		t.Fatal("expected Kill to set the killed flag")
	}
}
