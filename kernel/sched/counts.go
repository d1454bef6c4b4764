package sched

import "sv39kernel/kernel/proc"

// Counts tallies every allocated process/task slot by its RunState, the
// shape spec §8's "∑(ready) + ∑(running) + ∑(sleeping) + ∑(zombie) equals
// the total allocated" property test checks against. Process main threads
// and secondary tasks are counted together since RunState unifies their two
// separate status enums onto the same four scheduler-visible states.
type Counts map[RunState]int

// Total returns the sum across every counted state.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// TallyStates scans the whole process table (and every process's task
// vector) and counts each live slot by its RunState. A process in
// ALLOCATED or a task in Available is not yet scheduler-visible and is
// omitted, matching the invariant's "total allocated" meaning "allocated to
// the scheduler", not "reserved in the table".
func TallyStates() Counts {
	c := Counts{}
	for pid := 1; pid <= proc.NPROC; pid++ {
		p := proc.Lookup(pid)
		if p == nil {
			continue
		}
		if s := procState(p.RawState()); s != stateOther {
			c[s]++
		}
		for _, t := range p.Tasks {
			if s := taskState(t.RawStatus()); s != stateOther {
				c[s]++
			}
		}
	}
	return c
}
