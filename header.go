package region

// Descriptor carries the static, program-lifetime type information a
// collector needs to walk an object's out-edges and, optionally, run
// cleanup when the object dies. Descriptors are shared across every
// instance of a type and never mutated after construction.
type Descriptor struct {
	// Name identifies the type for diagnostics; it plays no role in
	// collection.
	Name string

	// Size is the byte size the collector reserves from the region's
	// backing allocator for this type's cell. It does not constrain what
	// the caller stores in Payload; it exists so every discipline
	// exercises the same alloc/free accounting against the backing
	// allocator.
	Size uintptr

	// Trace is called by the Trace and Rc collectors during mark and
	// mark-red respectively. It must call push once per out-edge; push
	// may be called zero or more times and must not be retained past the
	// call to Trace.
	Trace func(payload any, push func(*Object))

	// Finalize runs once, at most, when an object dies: during Trace
	// sweep, during Rc decref-to-zero, during Rc cycle collection, or
	// during region release. It must not allocate and must not open a
	// region on the calling thread; it may enqueue owned sub-regions onto
	// worklist for the caller to release afterward.
	Finalize func(payload any, worklist *ReleaseWorklist)
}

// ReleaseWorklist accumulates sub-region entry points that a finalizer
// wants released once the collector or RegionRelease finishes its own
// pass, rather than baking sub-region release into the collector itself.
type ReleaseWorklist struct {
	entries []*Object
}

// Add enqueues a sub-region (identified by its entry point) for release.
func (w *ReleaseWorklist) Add(subregionEntry *Object) {
	w.entries = append(w.entries, subregionEntry)
}

// Drain releases every sub-region enqueued so far, in enqueue order, and
// empties the worklist. It is safe to call even when nothing was added.
func (w *ReleaseWorklist) Drain() {
	entries := w.entries
	w.entries = nil
	for _, e := range entries {
		RegionRelease(e)
	}
}

// Object is one managed value inside a region: a descriptor pointer plus
// the header bits the three collectors share. A single struct backs all
// three disciplines; which fields are meaningful depends on the owning
// region's Kind.
type Object struct {
	desc   *Descriptor
	region *RegionBase
	// isEntry marks the object as its region's sole entry point (iso).
	isEntry bool
	payload any

	// next/prev form the intrusive list Trace and Rc regions sweep.
	// Unused (nil) for Arena objects, which are never individually
	// tracked once allocated.
	next *Object
	prev *Object

	// cell is the object's reservation from the region's backing
	// allocator, obtained on allocation and returned on death. It is
	// bookkeeping only: Payload, not cell, is what the caller reads and
	// writes.
	cell []byte

	// marked is the Trace collector's black/white bit. It is cleared by
	// sweep once an object survives a collection.
	marked bool

	// rc, red and buffered belong to the Rc collector only. rc is the
	// plain (non-atomic) reference count; buffered means the object is
	// a member of the suspicious set awaiting cycle collection; red
	// marks an object as tentatively garbage during mark-red/scan.
	rc       int
	red      bool
	buffered bool

	finalized bool

	// extRefs holds every ExternalRef created against this object, so a
	// single object's death (not just whole-region release) can
	// invalidate the handles pointing at it.
	extRefs []*ExternalRef
}

// Descriptor returns the object's static type information.
func (o *Object) Descriptor() *Descriptor { return o.desc }

// IsEntryPoint reports whether o is the sole entry point of its region.
func (o *Object) IsEntryPoint() bool { return o.isEntry }

// Payload returns the caller-supplied value the object carries. Trace
// callbacks receive this same value.
func (o *Object) Payload() any { return o.payload }

// SetPayload replaces the object's carried value. Descriptors typically
// call this once, immediately after allocation, to install a concrete
// struct whose fields point at other objects in the same region.
func (o *Object) SetPayload(v any) { o.payload = v }

func (o *Object) regionOf() *RegionBase {
	if o == nil {
		return nil
	}
	return o.region
}
