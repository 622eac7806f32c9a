package heap

import (
	"sync"
	"testing"
)

func TestSlabPoolAllocFreeRoundTrip(t *testing.T) {
	p := New(Config{MaxWarmPerSize: 4})

	slab, err := p.Alloc(128)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(slab) != 128 {
		t.Fatalf("Alloc returned %d bytes, want 128", len(slab))
	}
	for i, b := range slab {
		if b != 0 {
			t.Fatalf("slab not zeroed at index %d", i)
		}
	}
	slab[0] = 0xFF

	p.Free(slab)
	if !p.DebugCheckEmpty() {
		t.Fatalf("DebugCheckEmpty false after every slab freed")
	}

	reused, err := p.Alloc(128)
	if err != nil {
		t.Fatalf("Alloc (reuse): %v", err)
	}
	if reused[0] != 0 {
		t.Fatalf("reused slab not re-zeroed")
	}
}

func TestSlabPoolRejectsNegativeSize(t *testing.T) {
	p := New(Config{})
	if _, err := p.Alloc(-1); err != ErrExhausted {
		t.Fatalf("Alloc(-1): got %v, want ErrExhausted", err)
	}
}

func TestSlabPoolConcurrentAllocFree(t *testing.T) {
	p := New(Config{MaxWarmPerSize: 8})
	const goroutines = 32
	const iters = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				slab, err := p.Alloc(64)
				if err != nil {
					t.Errorf("Alloc: %v", err)
					return
				}
				p.Free(slab)
			}
		}()
	}
	wg.Wait()

	if !p.DebugCheckEmpty() {
		t.Fatalf("DebugCheckEmpty false after all goroutines returned their slabs")
	}
}
