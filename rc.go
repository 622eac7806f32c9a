package region

// rcState backs an Rc region: a per-object refcount allocator plus Lins's
// deferred cycle collector. The entry point is never linked into this
// list - like Trace, it is always alive - so head holds exactly the
// interior objects incref/decref and cycle collection can reclaim.
type rcState struct {
	head  *Object
	count int
	bytes uint64

	// suspicious holds Lins's roots: objects whose most recent decref did
	// not free them but left them looking cyclic. Object.buffered tracks
	// set membership so the same object is never queued twice, and so a
	// decref-to-zero can scrub a soon-to-be-freed object out of this list
	// before cycle collection ever looks at it again - otherwise freed
	// memory could be reprocessed as if it were still a live candidate.
	suspicious []*Object
}

func newRcState() *rcState {
	return &rcState{suspicious: make([]*Object, 0, suspiciousSetHint)}
}

func rcAllocate(rb *RegionBase, desc *Descriptor) (*Object, error) {
	cell, err := rb.allocator.Alloc(int(desc.Size))
	if err != nil {
		return nil, ErrAllocatorExhausted
	}
	obj := rb.newObject(desc)
	obj.cell = cell
	obj.rc = 1 // the allocation itself is the first owning reference

	obj.next = rb.rc.head
	if rb.rc.head != nil {
		rb.rc.head.prev = obj
	}
	rb.rc.head = obj

	rb.rc.count++
	rb.rc.bytes += uint64(desc.Size)
	return obj, nil
}

// rcInterior reports whether e is an interior object of rb. Refcount
// traffic never crosses a region boundary and never targets the entry
// point: the entry's lifetime is governed by RegionRelease, and edges to
// sub-region entry points are owned through the remembered set, not
// through counts.
func rcInterior(rb *RegionBase, e *Object) bool {
	return e != nil && e.region == rb && !e.isEntry
}

func rcUnlink(s *rcState, o *Object) {
	if o.prev != nil {
		o.prev.next = o.next
	} else if s.head == o {
		s.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	}
	o.next, o.prev = nil, nil
	s.count--
}

func rcBuffer(s *rcState, o *Object) {
	if o.buffered {
		return
	}
	o.buffered = true
	s.suspicious = append(s.suspicious, o)
}

// rcUnbuffer clears membership without compacting the backing slice; the
// slice is filtered lazily the next time cycle collection runs. Clearing
// the flag here, synchronously with the decref that frees the object, is
// what keeps a freed object from ever being reprocessed by a later cycle
// collection pass.
func rcUnbuffer(o *Object) {
	o.buffered = false
}

// rcIncref increments obj's reference count. Rc-only.
func rcIncref(obj *Object) {
	obj.rc++
}

// rcDecref implements decref(o): decrement, and if that was the last
// reference, free the object and iteratively cascade the decref to every
// out-edge so a long chain of single-owner objects can never blow the call
// stack.
func rcDecref(rb *RegionBase, start *Object) {
	s := rb.rc
	var worklist ReleaseWorklist
	pending := []*Object{start}

	for len(pending) > 0 {
		n := len(pending) - 1
		obj := pending[n]
		pending = pending[:n]

		obj.rc--
		if obj.rc > 0 {
			if !obj.buffered {
				rcBuffer(s, obj)
			}
			continue
		}

		// rc reached zero: this decref, not cycle collection, owns
		// freeing it. Scrub the suspicious set membership before
		// anything else so a stale reference into it can never surface
		// again.
		rcUnbuffer(obj)
		rcUnlink(s, obj)
		s.bytes -= uint64(obj.desc.Size)
		finalizeObject(rb, obj, &worklist)

		if obj.desc.Trace != nil {
			obj.desc.Trace(obj.payload, func(e *Object) {
				if rcInterior(rb, e) {
					pending = append(pending, e)
				}
			})
		}
	}
	worklist.Drain()
}

// rcCollectCycles runs one synchronous pass of Lins's cycle collector over
// the current suspicious set: mark-red, scan, collect.
func rcCollectCycles(rb *RegionBase) {
	s := rb.rc
	roots := s.suspicious
	s.suspicious = nil
	if len(roots) == 0 {
		return
	}

	// mark-red: DFS from every still-buffered root, decrementing each
	// traversed edge exactly once. jumpStack accumulates every object
	// coloured red so scan can revisit the same subgraph; pushing a
	// neighbour here even when mark-red just decremented it to zero
	// guarantees scan visits it rather than silently treating a
	// driven-to-zero interior node as already decided.
	jumpStack := make([]*Object, 0, cycleWorklistHint)
	stack := make([]*Object, 0, len(roots))
	for _, o := range roots {
		if o.buffered {
			stack = append(stack, o)
		}
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		o := stack[n]
		stack = stack[:n]
		if o.red {
			continue // already visited; do not re-expand its out-edges
		}
		o.red = true
		o.buffered = false
		jumpStack = append(jumpStack, o)

		if o.desc.Trace != nil {
			o.desc.Trace(o.payload, func(e *Object) {
				if !rcInterior(rb, e) {
					return
				}
				e.rc--
				stack = append(stack, e)
			})
		}
	}

	// scan: any red object whose count came back above zero is actually
	// live (referenced from outside the subgraph); colour it green and
	// walk its red out-edges, restoring the counts mark-red removed. An
	// explicit worklist keeps this iterative, matching mark-red above, so
	// a long restore chain can never blow the call stack.
	restoreStack := make([]*Object, 0, len(jumpStack))
	for _, o := range jumpStack {
		if o.red && o.rc > 0 {
			restoreStack = append(restoreStack, o)
		}
	}
	for len(restoreStack) > 0 {
		n := len(restoreStack) - 1
		o := restoreStack[n]
		restoreStack = restoreStack[:n]
		if !o.red {
			continue
		}
		o.red = false
		if o.desc.Trace != nil {
			o.desc.Trace(o.payload, func(e *Object) {
				if !rcInterior(rb, e) {
					return
				}
				e.rc++
				restoreStack = append(restoreStack, e)
			})
		}
	}

	// collect: everything still red survived scan with no external
	// referent and is garbage. Every internal edge was already accounted
	// for during mark-red, so collect only unlinks and finalizes - it
	// must not cascade-decref again, or it would double-count edges
	// shared between two garbage objects in the same cycle.
	var worklist ReleaseWorklist
	for _, o := range jumpStack {
		if o.red {
			rcUnlink(s, o)
			s.bytes -= uint64(o.desc.Size)
			finalizeObject(rb, o, &worklist)
		}
	}
	worklist.Drain()
}

// rcReleaseAll unconditionally finalizes and frees every interior object
// still linked into an Rc region, with no cycle analysis. Called only from
// physical release, after the region's logical life has already ended, so
// there is no remaining external observer to care whether a surviving
// refcount would otherwise have kept an object alive.
func rcReleaseAll(rb *RegionBase) {
	var worklist ReleaseWorklist
	for o := rb.rc.head; o != nil; {
		next := o.next
		finalizeObject(rb, o, &worklist)
		o = next
	}
	rb.rc.head = nil
	rb.rc.count = 0
	rb.rc.suspicious = nil
	worklist.Drain()
}
