package region

// traceState backs a Trace region: an intrusive object list plus a
// tri-colour mark-sweep collector rooted at the region's entry point. The
// entry point itself is never linked into this list - it lives on
// RegionBase and is always alive - so the list holds exactly the interior
// objects a sweep can reclaim.
type traceState struct {
	head  *Object
	count int
	bytes uint64

	frozen bool
}

func newTraceState() *traceState {
	return &traceState{}
}

func traceAllocate(rb *RegionBase, desc *Descriptor) (*Object, error) {
	if rb.trace.frozen {
		return nil, ErrFrozen
	}
	cell, err := rb.allocator.Alloc(int(desc.Size))
	if err != nil {
		return nil, ErrAllocatorExhausted
	}
	obj := rb.newObject(desc)
	obj.cell = cell

	obj.next = rb.trace.head
	if rb.trace.head != nil {
		rb.trace.head.prev = obj
	}
	rb.trace.head = obj

	rb.trace.count++
	rb.trace.bytes += uint64(desc.Size)
	return obj, nil
}

// traceCollect runs one mark-sweep pass. Finalizers run in sweep (list)
// order and may enqueue sub-regions onto worklist rather than allocating
// or opening a region themselves.
func traceCollect(rb *RegionBase) {
	ts := rb.trace
	if ts.frozen {
		// A frozen region is immortal: no further collection.
		return
	}

	// Mark: worklist-driven, not recursive, so deep graphs never blow the
	// call stack. Edges into other regions (sub-region entry points) are
	// not traced; a sub-region is owned whole, through the remembered
	// set, and its interior is never swept by this region's collector.
	worklist := make([]*Object, 0, cycleWorklistHint)
	push := func(o *Object) {
		if o == nil || o.region != rb || o.marked {
			return
		}
		o.marked = true
		worklist = append(worklist, o)
	}

	if rb.entry != nil && rb.entry.desc.Trace != nil {
		rb.entry.desc.Trace(rb.entry.payload, push)
	}
	for len(worklist) > 0 {
		n := len(worklist) - 1
		o := worklist[n]
		worklist = worklist[:n]
		if o.desc.Trace != nil {
			o.desc.Trace(o.payload, push)
		}
	}

	// Sweep: unlink and free anything left white; clear the mark bit on
	// anything that survived.
	var worklistRelease ReleaseWorklist
	var newHead, tail *Object
	survivors := 0

	for o := ts.head; o != nil; {
		next := o.next
		if o.marked {
			o.marked = false
			o.prev = tail
			o.next = nil
			if tail != nil {
				tail.next = o
			} else {
				newHead = o
			}
			tail = o
			survivors++
		} else {
			ts.bytes -= uint64(o.desc.Size)
			finalizeObject(rb, o, &worklistRelease)
		}
		o = next
	}

	ts.head = newHead
	ts.count = survivors
	worklistRelease.Drain()
}

func finalizeObject(rb *RegionBase, o *Object, worklist *ReleaseWorklist) {
	if o.finalized {
		return
	}
	o.finalized = true
	if o.desc.Finalize != nil {
		o.desc.Finalize(o.payload, worklist)
	}
	invalidateObjectExternalRefs(rb, o)
	rb.allocator.Free(o.cell)
	o.cell = nil
}

// invalidateObjectExternalRefs clears every handle issued against o, so a
// single object's death - not just whole-region release - retires its
// ExternalRefs immediately.
func invalidateObjectExternalRefs(rb *RegionBase, o *Object) {
	if len(o.extRefs) == 0 {
		return
	}
	refs := o.extRefs
	o.extRefs = nil
	rb.extMu.Lock()
	defer rb.extMu.Unlock()
	for _, ref := range refs {
		ref.valid.Store(false)
		delete(rb.externalRefs, ref)
	}
}

// traceReleaseAll unconditionally finalizes and frees every interior object
// still linked into a trace region, with no mark/reachability check. Called
// only from physical release, after the region's logical life has already
// ended.
func traceReleaseAll(rb *RegionBase) {
	var worklist ReleaseWorklist
	for o := rb.trace.head; o != nil; {
		next := o.next
		finalizeObject(rb, o, &worklist)
		o = next
	}
	rb.trace.head = nil
	rb.trace.count = 0
	worklist.Drain()
}

// traceMerge splices other's object list onto rb's and retires other's
// metadata. Both regions must be Trace regions; the caller (Merge) has
// already checked kinds match.
func traceMerge(rb, other *RegionBase) {
	ts, os := rb.trace, other.trace

	if os.head != nil {
		// Re-home every spliced object while walking to the tail, so
		// merged objects answer to rb from here on (allocation checks,
		// external-ref validation, finalization accounting).
		var tail *Object
		for o := os.head; o != nil; o = o.next {
			o.region = rb
			tail = o
		}
		tail.next = ts.head
		if ts.head != nil {
			ts.head.prev = tail
		}
		ts.head = os.head
	}
	ts.count += os.count
	ts.bytes += os.bytes

	rb.absorbMeta(other)
	if other.entry != nil && other.entry.cell != nil {
		rb.allocator.Free(other.entry.cell)
		other.entry.cell = nil
	}
	other.trace = nil
	other.isAlive.Store(false)
}

// freezeRegion marks every object in a trace region immutable and switches
// it to an immortal discipline: no further allocation, no further
// collection. Traversal is an iterative DFS from the entry point along
// the same descriptor Trace callback the collector uses.
func freezeRegion(rb *RegionBase) error {
	if rb.kind != KindTrace {
		return ErrWrongRegionKind
	}
	if rb.trace.frozen {
		return nil
	}

	visited := make(map[*Object]bool)
	var stack []*Object
	push := func(o *Object) {
		if o == nil || o.region != rb || visited[o] {
			return
		}
		visited[o] = true
		stack = append(stack, o)
	}

	if rb.entry != nil {
		push(rb.entry)
	}
	for len(stack) > 0 {
		n := len(stack) - 1
		o := stack[n]
		stack = stack[:n]
		if o.desc.Trace != nil {
			o.desc.Trace(o.payload, push)
		}
	}

	rb.frozen = true
	rb.trace.frozen = true
	return nil
}
