package region

// verify.go exposes the debug-size and reachability accounting the
// engine's testable properties rely on. It is not part of the engine's
// collection path; every function here is read-only and safe to call from
// test code while the target region is open.

// DebugSize reports how many objects are currently tracked in entry's
// region, counting the entry point itself: for Arena it is
// the allocation count; for Trace and Rc it is the intrusive list length
// plus one for the (never-linked) entry point.
func DebugSize(entry *Object) int {
	if entry == nil || entry.region == nil {
		return 0
	}
	rb := entry.region
	switch rb.kind {
	case KindArena:
		if rb.arena == nil {
			return 0
		}
		return rb.arena.objectCount + 1
	case KindTrace:
		if rb.trace == nil {
			return 0
		}
		return rb.trace.count + 1
	case KindRc:
		if rb.rc == nil {
			return 0
		}
		return rb.rc.count + 1
	default:
		return 0
	}
}

// reachableSet walks every out-edge from entry via its descriptor's Trace
// callback, the same traversal traceCollect's mark phase uses, and returns
// the set of objects visited (entry included). Edges into other regions
// are not followed, matching the collector. The walk is worklist-driven
// rather than recursive for the same reason every other graph walk in this
// package is.
func reachableSet(entry *Object) map[*Object]struct{} {
	visited := make(map[*Object]struct{})
	if entry == nil {
		return visited
	}
	rb := entry.region

	worklist := make([]*Object, 0, cycleWorklistHint)
	push := func(o *Object) {
		if o == nil || o.region != rb {
			return
		}
		if _, ok := visited[o]; ok {
			return
		}
		visited[o] = struct{}{}
		worklist = append(worklist, o)
	}

	push(entry)
	for len(worklist) > 0 {
		n := len(worklist) - 1
		o := worklist[n]
		worklist = worklist[:n]
		if o.desc.Trace != nil {
			o.desc.Trace(o.payload, push)
		}
	}
	return visited
}

// CountReachable walks from entry along out-edges and returns the number
// of distinct objects visited, entry included.
func CountReachable(entry *Object) int {
	return len(reachableSet(entry))
}

// CountUnreachable reports how many objects in universe are not reachable
// from entry. universe is supplied by the caller (e.g. a test harness that
// tracked every object it allocated) since the engine itself keeps no
// global object registry outside each region's own collector state.
func CountUnreachable(entry *Object, universe []*Object) int {
	reachable := reachableSet(entry)
	n := 0
	for _, o := range universe {
		if _, ok := reachable[o]; !ok {
			n++
		}
	}
	return n
}
