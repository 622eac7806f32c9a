package region_test

import (
	"testing"

	region "github.com/kaelbridge/regioncore"
)

func TestArenaBumpAllocateAndRelease(t *testing.T) {
	alloc := isolatedAllocator()
	desc := &region.Descriptor{Name: "cell", Size: 64}

	entry, err := region.CreateFreshRegion(region.KindArena, desc, region.WithAllocator(alloc))
	if err != nil {
		t.Fatalf("CreateFreshRegion: %v", err)
	}
	ctx := region.NewContext()
	if _, err := region.OpenRegion(ctx, entry, true); err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}

	const n = 2000 // enough to span multiple default slabs
	for i := 0; i < n; i++ {
		obj, err := region.Allocate(ctx, desc)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if obj == nil {
			t.Fatalf("Allocate #%d returned nil object", i)
		}
	}
	if got := region.DebugSize(entry); got != n+1 {
		t.Fatalf("DebugSize = %d, want %d", got, n+1)
	}

	// An arena's region_collect is a documented no-op: it
	// must not change the object count or otherwise disturb live cells.
	if err := region.RegionCollect(ctx); err != nil {
		t.Fatalf("RegionCollect: %v", err)
	}
	if got := region.DebugSize(entry); got != n+1 {
		t.Fatalf("DebugSize after no-op collect = %d, want %d", got, n+1)
	}

	region.CloseRegion(ctx, false)
	region.RegionRelease(entry)

	if !alloc.DebugCheckEmpty() {
		t.Fatalf("allocator still has outstanding slabs after arena release")
	}
}

func TestArenaMerge(t *testing.T) {
	alloc := isolatedAllocator()
	desc := &region.Descriptor{Name: "cell", Size: 32}

	a, err := region.CreateFreshRegion(region.KindArena, desc, region.WithAllocator(alloc))
	if err != nil {
		t.Fatalf("CreateFreshRegion a: %v", err)
	}
	b, err := region.CreateFreshRegion(region.KindArena, desc, region.WithAllocator(alloc))
	if err != nil {
		t.Fatalf("CreateFreshRegion b: %v", err)
	}

	ctx := region.NewContext()
	if _, err := region.OpenRegion(ctx, a, true); err != nil {
		t.Fatalf("OpenRegion a: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := region.Allocate(ctx, desc); err != nil {
			t.Fatalf("Allocate into a: %v", err)
		}
	}
	region.CloseRegion(ctx, false)

	if _, err := region.OpenRegion(ctx, b, true); err != nil {
		t.Fatalf("OpenRegion b: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := region.Allocate(ctx, desc); err != nil {
			t.Fatalf("Allocate into b: %v", err)
		}
	}
	region.CloseRegion(ctx, false)

	if _, err := region.OpenRegion(ctx, a, true); err != nil {
		t.Fatalf("re-open a: %v", err)
	}
	if err := region.Merge(ctx, b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	// a's own entry plus a's 5 cells plus b's 3 cells.
	if got, want := region.DebugSize(a), 1+5+3; got != want {
		t.Fatalf("DebugSize after merge = %d, want %d", got, want)
	}
	region.CloseRegion(ctx, false)
	region.RegionRelease(a)

	if !alloc.DebugCheckEmpty() {
		t.Fatalf("allocator still has outstanding slabs after merged region's release")
	}
}
