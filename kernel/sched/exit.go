package sched

import "sv39kernel/kernel/proc"

// waitChannel is the sleep channel a parent blocks on inside Wait: distinct
// from any task's own identity channel (sem and the sleeplock protocol key
// off a task or lock's own address/identity) by construction — it is keyed
// by the *parent's* pid, not any sleeping task's, and Wait is the only
// caller that ever sleeps on it.
func waitChannel(parentPid int) uintptr {
	return uintptr(uint32(parentPid))<<32 | 0xffffffff
}

// Exit terminates the calling process (its main thread; this core does not
// separately model a bare thread exiting without taking the whole process
// down with it — see spec §1's "syscall bodies" Non-goal for the thread-join
// variant this omits): its children are reparented to init (pid 1), its
// parent is woken on its wait channel, and the process becomes ZOMBIE.
// Unlike the real ABI's exit, Exit returns to its caller once the process
// is a ZOMBIE; the calling goroutine (see Spawn) then falls off the end of
// its own body.
func Exit(status int) {
	self := current()
	p := processOf(self)
	if p == nil {
		return
	}

	p.Excl.Acquire()
	children := p.Children
	parentPid := p.ParentPid
	p.Children = nil
	p.Excl.Release()

	for _, childPid := range children {
		child := proc.Lookup(childPid)
		if child == nil {
			continue
		}
		child.Excl.Acquire()
		child.ParentPid = 1
		zombie := child.RawState() == proc.Zombie
		child.Excl.Release()
		if init1 := proc.Lookup(1); init1 != nil && init1 != p {
			init1.Excl.Acquire()
			init1.Children = append(init1.Children, childPid)
			init1.Excl.Release()
		}
		if zombie {
			Wakeup(waitChannel(1))
		}
	}

	p.Excl.Acquire()
	p.ExitStatus = status
	p.SetState(proc.Zombie)
	p.Excl.Release()

	Wakeup(waitChannel(parentPid))
}

// Wait reaps the first ZOMBIE child of the calling process, returning its
// pid and exit status. If no child is currently a ZOMBIE but at least one
// live child exists, it blocks on the parent wait channel until Exit wakes
// it, then rescans. Returns ok=false immediately if the caller has no
// children at all.
func Wait() (childPid int, status int, ok bool) {
	self := current()
	p := processOf(self)

	for {
		p.Excl.Acquire()
		remaining := make([]int, 0, len(p.Children))
		reapPid, reapStatus := 0, 0
		anyChildren := len(p.Children) > 0
		for _, cand := range p.Children {
			child := proc.Lookup(cand)
			if child == nil {
				continue
			}
			assertAscendingPidLock(p.Pid, child.Pid)
			child.Excl.Acquire()
			isZombie := child.RawState() == proc.Zombie
			st := child.ExitStatus
			child.Excl.Release()
			if isZombie && reapPid == 0 {
				reapPid, reapStatus = cand, st
				continue
			}
			remaining = append(remaining, cand)
		}

		if reapPid != 0 {
			p.Children = remaining
			p.Excl.Release()
			proc.FreeProc(proc.Lookup(reapPid))
			return reapPid, reapStatus, true
		}
		if !anyChildren {
			p.Excl.Release()
			return 0, 0, false
		}
		p.Excl.Release()

		sleepOn(self, waitChannel(p.Pid), nil)
	}
}
