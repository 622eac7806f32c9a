package region

import (
	"sync"
	"sync/atomic"

	"github.com/kaelbridge/regioncore/internal/heap"
)

// RegionKind tags which collection discipline a region uses. Dispatch from
// the API layer switches on this tag rather than using virtual dispatch.
type RegionKind uint8

const (
	KindArena RegionKind = iota
	KindTrace
	KindRc
)

func (k RegionKind) String() string {
	switch k {
	case KindArena:
		return "Arena"
	case KindTrace:
		return "Trace"
	case KindRc:
		return "Rc"
	default:
		return "Unknown"
	}
}

// ConcurrentState is one of a region's three concurrent states.
type ConcurrentState int32

const (
	StateOpen ConcurrentState = iota
	StateClosed
	StateCollecting
)

func (s ConcurrentState) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	case StateCollecting:
		return "Collecting"
	default:
		return "Unknown"
	}
}

// RegionBase is a region's root state: the pieces every discipline shares.
// A Trace or Rc region's collector-specific state hangs off trace/rc; an
// Arena region's off arenaState. Exactly one of the three is non-nil,
// selected by kind.
type RegionBase struct {
	kind  RegionKind
	entry *Object

	// state, isAlive and owners are the only cross-thread mutable state
	// in the engine; everything else here is touched only by whichever
	// goroutine currently holds the region open or is running its GC
	// task.
	state      atomic.Int32
	isAlive    atomic.Bool
	owners     atomic.Int64
	gcInFlight atomic.Bool // at most one in-flight GC task per region

	allocator heap.Allocator

	extMu        sync.Mutex
	externalRefs map[*ExternalRef]struct{}

	remembered map[*RegionBase]struct{}

	frozen bool // Trace-only, set by Freeze

	arena *arenaState
	trace *traceState
	rc    *rcState
}

// RegionOption customizes a region at creation time.
type RegionOption func(*RegionBase)

// WithAllocator overrides the backing heap collaborator a region uses for
// its slabs/cells. Regions default to heap.Default().
func WithAllocator(a heap.Allocator) RegionOption {
	return func(rb *RegionBase) { rb.allocator = a }
}

func newRegionBase(kind RegionKind, opts ...RegionOption) *RegionBase {
	rb := &RegionBase{
		kind:         kind,
		allocator:    heap.Default(),
		externalRefs: make(map[*ExternalRef]struct{}),
		remembered:   make(map[*RegionBase]struct{}),
	}
	rb.state.Store(int32(StateClosed))
	rb.isAlive.Store(true)
	rb.owners.Store(1)
	for _, opt := range opts {
		opt(rb)
	}
	return rb
}

// Kind reports the region's collection discipline.
func (rb *RegionBase) Kind() RegionKind { return rb.kind }

// State reports the region's current concurrent state. It is a snapshot;
// by the time the caller observes it, it may already be stale.
func (rb *RegionBase) State() ConcurrentState { return ConcurrentState(rb.state.Load()) }

// IsAlive reports whether RegionRelease has been called on this region yet.
func (rb *RegionBase) IsAlive() bool { return rb.isAlive.Load() }

func (rb *RegionBase) newObject(desc *Descriptor) *Object {
	return &Object{desc: desc, region: rb}
}

// rememberSubregion records child as a region owned by rb: when rb is
// physically released, every remembered child is released along with it.
// See AdoptSubregion for how a caller establishes this relationship.
func (rb *RegionBase) rememberSubregion(child *RegionBase) {
	rb.remembered[child] = struct{}{}
}

// sweepRemembered releases every remembered sub-region once, in
// unspecified order, and empties the set. Called from physical release.
func (rb *RegionBase) sweepRemembered() {
	children := rb.remembered
	rb.remembered = nil
	for child := range children {
		if child.entry != nil {
			RegionRelease(child.entry)
		}
	}
}

// absorbMeta moves other's issued external references and remembered
// sub-regions onto rb during a merge, re-homing each handle's owner so it
// keeps validating against the surviving region, and keeping adopted
// children on the hook to be released when the merged region dies.
func (rb *RegionBase) absorbMeta(other *RegionBase) {
	other.extMu.Lock()
	refs := other.externalRefs
	other.externalRefs = nil
	other.extMu.Unlock()

	rb.extMu.Lock()
	for ref := range refs {
		ref.owner = rb
		rb.externalRefs[ref] = struct{}{}
	}
	rb.extMu.Unlock()

	for child := range other.remembered {
		rb.remembered[child] = struct{}{}
	}
	other.remembered = nil
}

// invalidateExternalRefs clears the valid bit on every handle this region
// issued. Called from physical release so stale handles fail fast instead
// of dereferencing freed memory.
func (rb *RegionBase) invalidateExternalRefs() {
	rb.extMu.Lock()
	defer rb.extMu.Unlock()
	for ref := range rb.externalRefs {
		ref.valid.Store(false)
	}
	rb.externalRefs = nil
}

// ExternalRef is a stable, validated handle to an interior object usable
// from outside its owning region. It is the only sanctioned way to reach
// into a region's interior without holding that region open as the
// current frame.
type ExternalRef struct {
	owner  *RegionBase
	target *Object
	valid  atomic.Bool
}

// IsIn reports whether region is the region that created this handle and
// the handle's target has not since been invalidated.
func (h *ExternalRef) IsIn(rb *RegionBase) bool {
	return h.valid.Load() && h.owner == rb
}
