// Package heap is the region engine's underlying allocator collaborator,
// specified only by the interface the engine consumes: a thread-safe
// byte-slab pool that keeps freed slabs warm for reuse, with a debug hook
// for checking that every slab handed out has been returned. The engine,
// not this package, is what enforces single-writer access to any one
// region's slabs; distinct regions may allocate concurrently.
package heap

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrExhausted is returned when the allocator cannot satisfy a request.
// The stand-in allocator only returns it if size is invalid; a real
// production allocator would return it under real memory pressure.
var ErrExhausted = errors.New("heap: allocator exhausted")

// Allocator is the external allocator collaborator the region engine
// consumes. Implementations must be safe for concurrent use by multiple
// regions; the engine itself guarantees at most one goroutine touches a
// single region's internals at a time, but distinct regions may allocate
// from the same Allocator concurrently.
type Allocator interface {
	// Alloc returns a zeroed slab of at least size bytes.
	Alloc(size int) ([]byte, error)
	// Free returns a slab previously obtained from Alloc.
	Free(slab []byte)
	// DebugCheckEmpty reports whether every slab handed out has been
	// returned. It exists purely for tests.
	DebugCheckEmpty() bool
}

// slabPool is the default Allocator: a size-segregated free list plus a
// live-slab counter, backed by ordinary Go slices. Freed slabs are kept on
// a warm list (bounded) rather than returned to the runtime immediately,
// mirroring EpochArena's warmPool reuse strategy.
type slabPool struct {
	mu      sync.Mutex
	warm    map[int][][]byte
	maxWarm int
	live    atomic.Int64
}

// Config carries the pool's tunables.
type Config struct {
	// MaxWarmPerSize bounds how many freed slabs of a given size are kept
	// ready for reuse before Free just drops them.
	MaxWarmPerSize int
}

// New returns a fresh Allocator configured by cfg.
func New(cfg Config) Allocator {
	if cfg.MaxWarmPerSize < 0 {
		cfg.MaxWarmPerSize = 0
	}
	return &slabPool{
		warm:    make(map[int][][]byte),
		maxWarm: cfg.MaxWarmPerSize,
	}
}

var defaultAllocator = New(Config{MaxWarmPerSize: 8})

// Default returns the package-wide default allocator instance regions use
// when the caller does not supply one explicitly.
func Default() Allocator { return defaultAllocator }

func (p *slabPool) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrExhausted
	}
	if size == 0 {
		size = 1
	}

	p.mu.Lock()
	if bucket := p.warm[size]; len(bucket) > 0 {
		slab := bucket[len(bucket)-1]
		p.warm[size] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		for i := range slab {
			slab[i] = 0
		}
		p.live.Add(1)
		return slab, nil
	}
	p.mu.Unlock()

	slab := make([]byte, size)
	p.live.Add(1)
	return slab, nil
}

func (p *slabPool) Free(slab []byte) {
	if slab == nil {
		return
	}
	size := cap(slab)
	p.mu.Lock()
	if len(p.warm[size]) < p.maxWarm {
		p.warm[size] = append(p.warm[size], slab[:size])
	}
	p.mu.Unlock()
	p.live.Add(-1)
}

func (p *slabPool) DebugCheckEmpty() bool {
	return p.live.Load() == 0
}
