package sched

// assertAscendingPidLock enforces spec.md's lock-order rule: "holding two
// process locks ... is allowed only when the acquiring hart holds neither
// and acquires them by ascending pid." heldPid is the pid whose Excl the
// calling hart already holds; acquiringPid is the pid of the Excl it is
// about to acquire while still holding the first. Violating this ordering
// is how two harts reaching for the same pair of locks in opposite
// directions would deadlock, so it is asserted rather than merely
// documented.
func assertAscendingPidLock(heldPid, acquiringPid int) {
	if acquiringPid <= heldPid {
		panic("sched: lock-order violation: process locks must nest by ascending pid")
	}
}
