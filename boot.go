package main

import (
	"sv39kernel/kernel/boot"
	"sv39kernel/kernel/cpu"
	"sv39kernel/kernel/mem/pmm"
)

// main is this hosted build's stand-in for the rt0 trampoline a real image
// would use to hand off from assembly into Go: there is no multiboot loader
// or GDT setup to bridge here, so it goes straight to boot.Boot with a
// literal physical frame range instead of one parsed from a memory map.
func main() {
	cfg := boot.Config{
		BaseFrame:  0,
		LimitFrame: pmm.Frame(1 << 16),
		NHarts:     cpu.NCPU,
	}
	boot.Boot(cfg)
	boot.RunHarts(cfg, cpu.Halt)
}
