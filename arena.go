package region

// arenaState backs an Arena region: a bump-pointer allocator over slabs
// obtained from the backing heap.Allocator. Arena regions never trace or
// sweep; collection is a no-op and release returns every slab to the
// allocator in a single pass.
type arenaState struct {
	slabSize int

	slabs []arenaCellSource // for bookkeeping/DebugCheckEmpty parity only
	cur   []byte
	off   int

	objectCount int
	highWater   int
}

// arenaCellSource is a slab handed out by the allocator, tracked so
// release can hand every one of them back exactly once.
type arenaCellSource = []byte

func newArenaState(slabSize int) *arenaState {
	if slabSize <= 0 {
		slabSize = defaultSlabSize
	}
	return &arenaState{slabSize: slabSize}
}

// bump reserves size bytes from the current slab, requesting a fresh one
// from allocator if the current slab (or lack of one) can't fit it. A
// slab request happens only when a slab fills, not on every allocation,
// keeping allocation O(1) amortised.
func (a *arenaState) bump(rb *RegionBase, size int) ([]byte, error) {
	if size < 0 {
		size = 0
	}
	if a.cur == nil || a.off+size > len(a.cur) {
		want := a.slabSize
		if size > want {
			want = size
		}
		slab, err := rb.allocator.Alloc(want)
		if err != nil {
			return nil, err
		}
		a.slabs = append(a.slabs, slab)
		a.cur = slab
		a.off = 0
	}
	cell := a.cur[a.off : a.off+size]
	a.off += size
	a.objectCount++
	if a.off > a.highWater {
		a.highWater = a.off
	}
	return cell, nil
}

// release returns every slab ever handed out by this arena to the backing
// allocator in one pass. It is destructive: every pointer the arena
// allocated becomes invalid the moment this returns.
func (a *arenaState) release(rb *RegionBase) {
	for _, slab := range a.slabs {
		rb.allocator.Free(slab)
	}
	a.slabs = nil
	a.cur = nil
	a.off = 0
}

func arenaAllocate(rb *RegionBase, desc *Descriptor) (*Object, error) {
	cell, err := rb.arena.bump(rb, int(desc.Size))
	if err != nil {
		return nil, ErrAllocatorExhausted
	}
	obj := rb.newObject(desc)
	obj.cell = cell
	return obj, nil
}

// arenaMerge folds other's slabs into rb's. An arena tracks no per-object
// list, so merging is just slab-list concatenation; rb keeps bumping from
// its own current slab afterward, and other's metadata is retired.
func arenaMerge(rb, other *RegionBase) {
	as, os := rb.arena, other.arena

	as.slabs = append(as.slabs, os.slabs...)
	as.objectCount += os.objectCount
	if os.highWater > as.highWater {
		as.highWater = os.highWater
	}

	rb.absorbMeta(other)
	if other.entry != nil && other.entry.cell != nil {
		rb.allocator.Free(other.entry.cell)
		other.entry.cell = nil
	}
	other.arena = nil
	other.isAlive.Store(false)
}
