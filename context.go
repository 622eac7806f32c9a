package region

import (
	"log"
	"time"

	"github.com/kaelbridge/regioncore/internal/sched"
)

// GCCallback receives one notification per completed collection: how long
// it took, which discipline ran, and the region's size immediately before
// the collector started.
type GCCallback func(duration time.Duration, kind RegionKind, bytesBefore, objectsBefore uint64)

func defaultGCCallback(d time.Duration, kind RegionKind, bytesBefore, objectsBefore uint64) {
	log.Printf("region gc: kind=%s duration=%s objects_before=%d bytes_before=%d",
		kind, d, objectsBefore, bytesBefore)
}

type frame struct {
	entry  *Object
	region *RegionBase
	prev   *frame
}

// Context is a worker goroutine's per-goroutine engine state: a stack of
// open-region frames plus an optional GC callback. Go has no built-in
// thread-local storage, so a Context is an explicit value each goroutine
// creates once (NewContext) and threads through every call it makes into
// this package, rather than something looked up from ambient global
// state. Using the same Context concurrently from two goroutines is a
// programmer error, just as it would be for a real thread-local whose
// owning thread forked without re-initializing it.
type Context struct {
	top       *frame
	scheduler sched.Scheduler
	callback  GCCallback
}

// ContextOption customizes a Context at creation time.
type ContextOption func(*Context)

// WithScheduler overrides the Scheduler a Context's regions use to run
// background GC tasks. The default is a small shared worker pool.
func WithScheduler(s sched.Scheduler) ContextOption {
	return func(c *Context) { c.scheduler = s }
}

var defaultScheduler = mustDefaultPool()

func mustDefaultPool() sched.Scheduler {
	p, err := sched.NewPool(sched.Config{Workers: 4, Capacity: 1024})
	if err != nil {
		panic(err)
	}
	return p
}

// NewContext creates a fresh per-goroutine engine context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{scheduler: defaultScheduler}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGCCallback installs cb as this context's GC notification hook,
// overriding the default logging behavior. Passing nil restores it.
func (c *Context) SetGCCallback(cb GCCallback) { c.callback = cb }

// callbackOrDefault returns this context's installed GC callback, or the
// package default (one log line per collection) if none was set.
func (c *Context) callbackOrDefault() GCCallback {
	if c.callback == nil {
		return defaultGCCallback
	}
	return c.callback
}

func (c *Context) push(f *frame) {
	f.prev = c.top
	c.top = f
}

func (c *Context) pop() *frame {
	f := c.top
	if f == nil {
		return nil
	}
	c.top = f.prev
	f.prev = nil
	return f
}

// currentRegion returns the region at the top of this context's frame
// stack, or nil if nothing is open.
func (c *Context) currentRegion() *RegionBase {
	if c.top == nil {
		return nil
	}
	return c.top.region
}
