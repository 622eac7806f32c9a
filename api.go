package region

import "time"

// CreateFreshRegion allocates a region's metadata and its entry point
// together and returns the entry point, marked iso (the region's sole
// external identity). The region starts Closed, with owners=1 and
// isAlive=true; the caller must OpenRegion it before allocating anything
// else into it.
func CreateFreshRegion(kind RegionKind, entryDesc *Descriptor, opts ...RegionOption) (*Object, error) {
	if entryDesc == nil {
		return nil, ErrWrongRegionKind
	}

	rb := newRegionBase(kind, opts...)
	switch kind {
	case KindArena:
		rb.arena = newArenaState(defaultSlabSize)
	case KindTrace:
		rb.trace = newTraceState()
	case KindRc:
		rb.rc = newRcState()
	default:
		return nil, ErrWrongRegionKind
	}

	cell, err := rb.allocator.Alloc(int(entryDesc.Size))
	if err != nil {
		return nil, ErrAllocatorExhausted
	}

	entry := rb.newObject(entryDesc)
	entry.isEntry = true
	entry.cell = cell
	if kind == KindRc {
		// The entry point is never linked into rc's intrusive list (it is
		// always alive for the region's lifetime). It still carries a
		// count, and Decref rejects it, so a stray decref against it is
		// caught rather than freeing it or corrupting the list's count.
		entry.rc = 1
	}
	rb.entry = entry
	return entry, nil
}

// OpenRegion pushes a frame onto ctx's stack and drives the Closed->Open
// transition.
//
// forWork=true is the mutator path: it spins until the region is Closed
// and always succeeds. forWork=false is the non-blocking variant: a
// single CAS attempt that reports ErrRegionBusy if the region is not
// currently Closed, rather than waiting.
func OpenRegion(ctx *Context, entry *Object, forWork bool) (bool, error) {
	if entry == nil || entry.region == nil {
		return false, ErrWrongRegionKind
	}
	rb := entry.region
	if !rb.isAlive.Load() {
		return false, ErrRegionNotAlive
	}

	if forWork {
		rb.openForWork()
	} else if !rb.tryOpenForWork() {
		return false, ErrRegionBusy
	}

	ctx.push(&frame{entry: entry, region: rb})
	return true, nil
}

// CloseRegion pops the current frame and drives the Open->Closed
// transition. When forWork is true, a GC task is scheduled for the
// region; a region merely peeked at via a non-blocking OpenRegion should
// close with forWork=false so no GC is scheduled for work that never
// mutated it.
func CloseRegion(ctx *Context, forWork bool) error {
	f := ctx.pop()
	if f == nil {
		return ErrRegionNotOpen
	}
	rb := f.region
	rb.closeAfterWork()
	if forWork {
		rb.scheduleGC(ctx)
	}
	return nil
}

// Allocate places a new object, of the shape described by desc, into
// whichever region is at the top of ctx's frame stack.
func Allocate(ctx *Context, desc *Descriptor) (*Object, error) {
	rb := ctx.currentRegion()
	if rb == nil {
		return nil, ErrRegionNotOpen
	}
	switch rb.kind {
	case KindArena:
		return arenaAllocate(rb, desc)
	case KindTrace:
		return traceAllocate(rb, desc)
	case KindRc:
		return rcAllocate(rb, desc)
	default:
		return nil, ErrWrongRegionKind
	}
}

// Incref increments o's reference count. Rc-only, and only valid while
// o's region is the one currently open on ctx; at most one goroutine
// holds a region open during any refcount mutation, so counts are plain
// integers, not atomics.
func Incref(ctx *Context, o *Object) error {
	rb := ctx.currentRegion()
	if rb == nil {
		return ErrRegionNotOpen
	}
	if rb.kind != KindRc {
		return ErrWrongRegionKind
	}
	if o == nil || o.region != rb {
		return ErrWrongRegionKind
	}
	rcIncref(o)
	return nil
}

// Decref decrements o's reference count; it may free o and cascade the
// decref through its out-edges. The entry point is rejected with
// ErrWrongRegionKind: its lifetime belongs to RegionRelease.
func Decref(ctx *Context, o *Object) error {
	rb := ctx.currentRegion()
	if rb == nil {
		return ErrRegionNotOpen
	}
	if rb.kind != KindRc {
		return ErrWrongRegionKind
	}
	if o == nil || o.region != rb || o.isEntry {
		return ErrWrongRegionKind
	}
	rcDecref(rb, o)
	return nil
}

// RegionCollect runs whichever collector matches the currently-open
// region's discipline. Arena's
// collector is a no-op; Trace runs mark-sweep; Rc runs one pass of Lins's
// cycle collector over the current suspicious set.
func RegionCollect(ctx *Context) error {
	rb := ctx.currentRegion()
	if rb == nil {
		return ErrRegionNotOpen
	}
	runCollectorLocked(rb, ctx.callbackOrDefault())
	return nil
}

// runCollectorLocked runs rb's collector and reports the pass to cb. It
// assumes the caller already holds rb exclusively, either as the mutator
// with it Open or as the one GC task with it Collecting.
func runCollectorLocked(rb *RegionBase, cb GCCallback) {
	switch rb.kind {
	case KindArena:
		// Arena GC is a no-op; nothing to snapshot or report.
		return
	case KindTrace:
		bytesBefore, objectsBefore := rb.trace.bytes, uint64(rb.trace.count)
		start := time.Now()
		traceCollect(rb)
		if cb != nil {
			cb(time.Since(start), KindTrace, bytesBefore, objectsBefore)
		}
	case KindRc:
		bytesBefore, objectsBefore := rb.rc.bytes, uint64(rb.rc.count)
		start := time.Now()
		rcCollectCycles(rb)
		if cb != nil {
			cb(time.Since(start), KindRc, bytesBefore, objectsBefore)
		}
	}
}

// RegionRelease ends the region's logical life and physically frees it
// once no GC task can still be holding it: whichever of this call or a GC
// task's finishOwner last decrements owners to zero performs the one
// physical release.
func RegionRelease(entry *Object) {
	if entry == nil || entry.region == nil {
		return
	}
	rb := entry.region
	rb.isAlive.Store(false) // release-ordered: visible to a racing GC task's acquire load
	if rb.owners.Add(-1) == 0 {
		physicallyRelease(rb)
	}
}

// physicallyRelease performs the one-time, collector-specific teardown of
// a dead region: every object still tracked by the
// region is finalized and freed, the entry point's own cell is freed,
// remembered sub-regions are released, and outstanding external references
// are invalidated.
func physicallyRelease(rb *RegionBase) {
	switch rb.kind {
	case KindArena:
		if rb.arena != nil {
			rb.arena.release(rb)
		}
	case KindTrace:
		if rb.trace != nil {
			traceReleaseAll(rb)
		}
	case KindRc:
		if rb.rc != nil {
			rcReleaseAll(rb)
		}
	}

	if rb.entry != nil && rb.entry.cell != nil {
		rb.allocator.Free(rb.entry.cell)
		rb.entry.cell = nil
	}

	rb.sweepRemembered()
	rb.invalidateExternalRefs()
}

// Merge splices the region identified by otherEntry into the region
// currently open on ctx. Both regions must share a discipline, and only
// Arena and Trace support it: merging two Rc regions would need semantics
// for re-homing the donor's in-flight suspicious set mid-algorithm, which
// no caller needs yet, so Rc returns ErrWrongRegionKind rather than
// guessing at count-preserving semantics.
func Merge(ctx *Context, otherEntry *Object) error {
	rb := ctx.currentRegion()
	if rb == nil {
		return ErrRegionNotOpen
	}
	if otherEntry == nil || otherEntry.region == nil {
		return ErrWrongRegionKind
	}
	other := otherEntry.region
	if other.kind != rb.kind {
		return ErrWrongRegionKind
	}

	switch rb.kind {
	case KindTrace:
		traceMerge(rb, other)
		return nil
	case KindArena:
		arenaMerge(rb, other)
		return nil
	default:
		return ErrWrongRegionKind
	}
}

// AdoptSubregion records the region identified by childEntry in the
// remembered set of the region currently open on ctx: when the parent is
// physically released, every adopted child is released with it. This is
// the assignment-side growth of the remembered set; a
// finalizer that wants a child released earlier enqueues it on its
// ReleaseWorklist instead.
func AdoptSubregion(ctx *Context, childEntry *Object) error {
	rb := ctx.currentRegion()
	if rb == nil {
		return ErrRegionNotOpen
	}
	if childEntry == nil || childEntry.region == nil || childEntry.region == rb {
		return ErrWrongRegionKind
	}
	if !childEntry.region.isAlive.Load() {
		return ErrRegionNotAlive
	}
	rb.rememberSubregion(childEntry.region)
	return nil
}

// Freeze marks every object in entry's region immutable and switches the
// region to an immortal discipline. Trace-region only.
func Freeze(entry *Object) error {
	if entry == nil || entry.region == nil {
		return ErrWrongRegionKind
	}
	return freezeRegion(entry.region)
}

// CreateExternalReference returns a stable, validated handle to o, which
// must belong to the region currently open on ctx.
func CreateExternalReference(ctx *Context, o *Object) (*ExternalRef, error) {
	rb := ctx.currentRegion()
	if rb == nil {
		return nil, ErrRegionNotOpen
	}
	if o == nil || o.region != rb {
		return nil, ErrWrongRegionKind
	}

	ref := &ExternalRef{owner: rb, target: o}
	ref.valid.Store(true)

	rb.extMu.Lock()
	rb.externalRefs[ref] = struct{}{}
	rb.extMu.Unlock()
	o.extRefs = append(o.extRefs, ref)

	return ref, nil
}

// IsExternalReferenceValid reports whether h may be dereferenced here:
// true only when ctx's currently-open region
// is the one that created h and h's target has not since been freed or the
// region released.
func IsExternalReferenceValid(ctx *Context, h *ExternalRef) bool {
	if h == nil {
		return false
	}
	rb := ctx.currentRegion()
	if rb == nil {
		return false
	}
	return h.IsIn(rb)
}

// UseExternalReference returns h's target, or ErrExternalRefInvalid if h
// is not valid against
// ctx's currently-open region.
func UseExternalReference(ctx *Context, h *ExternalRef) (*Object, error) {
	if !IsExternalReferenceValid(ctx, h) {
		return nil, ErrExternalRefInvalid
	}
	return h.target, nil
}
