package region_test

import (
	"sync"
	"sync/atomic"
	"testing"

	region "github.com/kaelbridge/regioncore"
	"github.com/kaelbridge/regioncore/internal/sched"
)

// TestConcurrentMutatorsSerialized checks state-machine safety: N
// goroutines repeatedly open-for-work/close-for-work against
// one region, and a shared counter (incremented only while "open")
// detects any overlap that would mean two mutators held the region open
// at once.
func TestConcurrentMutatorsSerialized(t *testing.T) {
	desc := newTestDescriptor("node")
	entry, err := region.CreateFreshRegion(region.KindTrace, desc, region.WithAllocator(isolatedAllocator()))
	if err != nil {
		t.Fatalf("CreateFreshRegion: %v", err)
	}

	const goroutines = 16
	const itersEach = 200

	var inside atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := region.NewContext(region.WithScheduler(sched.Inline{}))
			for i := 0; i < itersEach; i++ {
				if _, err := region.OpenRegion(ctx, entry, true); err != nil {
					t.Errorf("OpenRegion: %v", err)
					return
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				inside.Add(-1)
				if err := region.CloseRegion(ctx, false); err != nil {
					t.Errorf("CloseRegion: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if violations.Load() != 0 {
		t.Fatalf("%d overlapping opens observed on a single region", violations.Load())
	}

	region.RegionRelease(entry)
}

// TestReleaseWhileGCScheduled: a mutator closes a region
// (scheduling a GC task) and then immediately releases it. Whichever of
// the release call or the GC task last decrements owners to zero must
// physically release exactly once, and the underlying allocator must end
// up empty either way.
func TestReleaseWhileGCScheduled(t *testing.T) {
	alloc := isolatedAllocator()
	desc := newTestDescriptor("node")
	entry, err := region.CreateFreshRegion(region.KindTrace, desc, region.WithAllocator(alloc))
	if err != nil {
		t.Fatalf("CreateFreshRegion: %v", err)
	}

	pool, err := sched.NewPool(sched.Config{Workers: 2, Capacity: 8})
	if err != nil {
		t.Fatalf("sched.NewPool: %v", err)
	}
	defer pool.Close()

	ctx := region.NewContext(region.WithScheduler(pool))
	if _, err := region.OpenRegion(ctx, entry, true); err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	if _, err := region.Allocate(ctx, desc); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Close schedules a GC task (owners now 2: the release below, and the
	// task). Releasing immediately afterward races the release against the
	// still-pending task.
	if err := region.CloseRegion(ctx, true); err != nil {
		t.Fatalf("CloseRegion: %v", err)
	}
	region.RegionRelease(entry)

	// Give the pool worker a chance to run the (possibly aborting) GC
	// task and finish releasing ownership.
	pool.Close()

	if !alloc.DebugCheckEmpty() {
		t.Fatalf("allocator still has outstanding slabs after release race")
	}
}
