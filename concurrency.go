package region

import "runtime"

// openForWork is the mutator's opening-for-work transition:
// Closed -> Open, spinning while the region is Open or Collecting.
//
// Design note: a spin that reuses a single `expected = Closed` across both
// the Open and Collecting wait cases can livelock under contention,
// because a single failed CAS can't distinguish "someone else has it open"
// from "a GC just started and will finish shortly." This loop instead has
// two distinct branches
// with their own re-read of state before ever attempting the CAS, so it
// never treats a losing CAS as informative - it always re-observes state
// and re-decides which condition it's waiting on.
func (rb *RegionBase) openForWork() {
	for {
		switch ConcurrentState(rb.state.Load()) {
		case StateOpen:
			runtime.Gosched()
		case StateCollecting:
			runtime.Gosched()
		default: // Closed
			if rb.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
				return
			}
			// Lost the race to another opener; loop and re-observe.
		}
	}
}

// tryOpenForWork is the non-blocking counterpart used by OpenRegion callers
// that do not want to spin.
func (rb *RegionBase) tryOpenForWork() bool {
	return rb.state.CompareAndSwap(int32(StateClosed), int32(StateOpen))
}

// closeAfterWork implements Open -> Closed. The CAS must succeed: any
// failure means a caller closed a region it never validly opened, which is
// an invariant violation, and the process aborts.
func (rb *RegionBase) closeAfterWork() {
	if !rb.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		panic("region: close_region observed a state other than Open (invariant violated)")
	}
}

// openForGC implements the GC task's one-shot Closed -> Collecting
// transition. Unlike openForWork it never spins: if the region is not
// Closed, the task aborts with no retry, and a fresh GC is scheduled the
// next time a mutator closes the region after work.
func (rb *RegionBase) openForGC() bool {
	return rb.state.CompareAndSwap(int32(StateClosed), int32(StateCollecting))
}

// closeAfterGC implements Collecting -> Closed. Must succeed for the same
// reason closeAfterWork's CAS must succeed.
func (rb *RegionBase) closeAfterGC() {
	if !rb.state.CompareAndSwap(int32(StateCollecting), int32(StateClosed)) {
		panic("region: gc task failed to close region after collecting (invariant violated)")
	}
}

// scheduleGC is the mutator side of the GC scheduling protocol: increment
// owners before handing a closure to the scheduler, so
// the region cannot be physically released out from under the pending GC
// task.
func (rb *RegionBase) scheduleGC(ctx *Context) {
	rb.owners.Add(1)
	cb := ctx.callbackOrDefault()
	ctx.scheduler.Schedule(func() { rb.runGCTask(cb) })
}

// runGCTask is the scheduled GC closure: check isAlive, try to open for
// GC, collect, close, then release ownership - releasing the region for
// real if this was the last owner and it is no longer alive. cb is the GC
// callback installed on the Context that scheduled this task, captured at
// schedule time since the task runs on a pool worker goroutine with no
// Context of its own to look one up from.
func (rb *RegionBase) runGCTask(cb GCCallback) {
	defer rb.finishOwner()

	// isAlive uses acquire-on-read so a release published by
	// another goroutine before this task's owners increment is visible
	// here.
	if !rb.isAlive.Load() {
		return
	}

	// At most one in-flight GC task per region,
	// enforced by a state bit distinct from `state` itself so a second
	// scheduled task backs off cleanly instead of contending on the CAS
	// only to lose it (which would be indistinguishable from "a mutator
	// has it open").
	if !rb.gcInFlight.CompareAndSwap(false, true) {
		return
	}
	defer rb.gcInFlight.Store(false)

	if !rb.openForGC() {
		return // benign failure, no re-queue
	}

	runCollectorLocked(rb, cb)
	rb.closeAfterGC()
}

// finishOwner decrements the task refcount and performs physical release
// if this was the last owner and the region's logical life has already
// ended. This resolves the release-racing-a-scheduled-GC TOCTTOU: whichever
// of RegionRelease or a GC task's finishOwner observes owners hit zero
// last is the one that actually frees memory, and it happens exactly once
// because owners only ever reaches zero once.
func (rb *RegionBase) finishOwner() {
	if rb.owners.Add(-1) == 0 && !rb.isAlive.Load() {
		physicallyRelease(rb)
	}
}
