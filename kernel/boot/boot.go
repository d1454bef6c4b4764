// Package boot sequences the strictly-ordered bring-up spec §6's "Boot
// contract" describes: the bootstrap hart initializes the physical
// allocator, installs the shared trampoline, builds and starts the first
// user process from its embedded initcode, then every hart (bootstrap
// included) runs its scheduler forever. Device MMIO mapping, the real
// trampoline assembly and paging activation are hardware concerns this
// hosted build has no equivalent of; what remains is every piece of
// software state those steps gate.
package boot

import (
	"sv39kernel/kernel/cpu"
	"sv39kernel/kernel/mem"
	"sv39kernel/kernel/mem/pmm"
	"sv39kernel/kernel/proc"
	"sv39kernel/kernel/sched"
)

// Initcode is a 51-byte placeholder standing in for the embedded image spec
// §6's boot contract describes ("installs the first user process from a
// 51-byte embedded initcode that execs /init"): the real bytes are a tiny
// RISC-V assembly stub this core does not assemble (exec's body is a
// syscall out of scope per spec §1). What matters to the core is that some
// fixed-size image gets mapped at va=0 and run as pid 1.
var Initcode = make([]byte, 51)

// Config bundles the handful of boot-time choices a real image would take
// from a linker-provided memory map instead of a literal.
type Config struct {
	// BaseFrame/LimitFrame bound the physical frame range the allocator
	// manages, i.e. [ceil(kernel_heap_end), floor(phys_top)) in frame units.
	BaseFrame, LimitFrame pmm.Frame

	// NHarts is how many harts this build brings up, capped at cpu.NCPU.
	NHarts int
}

// Bring up runs the bootstrap hart's sequence and returns the first
// process, now RUNNABLE and enqueued. Callers run RunHart(0, pause) (and
// one goroutine per additional hart up to cfg.NHarts) afterward; Boot itself
// never starts a scheduler loop so tests can inspect state between bring-up
// and the first Step.
//
// Boot only pushes init1 onto the ready queue; it does not Spawn a goroutine
// body for it (unlike tests, which Spawn a stand-in body to exercise Step).
// A real image's first process runs by way of its mapped initcode, which
// this hosted build has no way to execute — under RunHarts the first Step
// pops init's Ref and marks it RUNNING, finds no goroutine body registered
// for it, and nothing enqueues it again: an idle-but-installed init process.
func Boot(cfg Config) *proc.Process {
	pmm.Init(cfg.BaseFrame, cfg.LimitFrame)

	trampoline := pmm.Alloc()
	pmm.Zero(uint64(trampoline.Address()), mem.PageSize)
	proc.Init(trampoline.Address())

	sched.Init()

	init1, err := proc.AllocProc()
	if err != nil {
		panic("boot: failed to allocate the first process: " + err.Error())
	}
	if err := init1.PageTable.UvmInit(Initcode); err != nil {
		panic("boot: failed to map initcode: " + err.Error())
	}
	init1.Sz = mem.PageSize
	init1.Name = "initcode"
	init1.Excl.Release()

	sched.Start(init1)

	return init1
}

// RunHarts starts cfg.NHarts scheduler loops, hart 0 on the calling
// goroutine (so Boot's caller blocks here forever, matching "every hart
// then runs its scheduler forever") and the rest as background goroutines.
// pause stands in for the real wait-for-interrupt instruction idle harts
// execute; tests never call this (they drive sched.Step directly instead).
func RunHarts(cfg Config, pause func()) {
	n := cfg.NHarts
	if n <= 0 {
		n = 1
	}
	if n > cpu.NCPU {
		n = cpu.NCPU
	}
	for hart := 1; hart < n; hart++ {
		go sched.RunHart(hart, pause)
	}
	sched.RunHart(0, pause)
}
