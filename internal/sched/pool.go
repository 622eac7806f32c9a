// Package sched gives the region engine a concrete background task queue:
// a fixed pool of goroutines draining a buffered channel of GC closures,
// coordinated with golang.org/x/sync/errgroup so a caller can wait for
// every in-flight task to finish before the pool's backing goroutines
// exit.
package sched

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the external task queue collaborator the region engine's
// background GC dispatch depends on: closing a region after work hands it
// one closure per close; nothing else about the engine depends on how or
// when that closure actually runs.
type Scheduler interface {
	Schedule(work func())
}

// Pool is the default Scheduler.
type Pool struct {
	tasks  chan func()
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// Config carries the pool's tunables.
type Config struct {
	// Workers is how many goroutines drain the task queue.
	Workers int
	// Capacity bounds how many scheduled tasks may wait in the queue
	// before Schedule blocks.
	Capacity int
}

// NewPool starts cfg.Workers goroutines draining a channel of cfg.Capacity
// tasks. Call Close to stop accepting work and wait for every worker to
// drain its current task.
func NewPool(cfg Config) (*Pool, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	capacity := cfg.Capacity
	if capacity < 1 {
		capacity = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &Pool{tasks: make(chan func(), capacity), group: group, ctx: gctx, cancel: cancel}
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			p.runWorker()
			return nil
		})
	}
	return p, nil
}

func (p *Pool) runWorker() {
	for {
		select {
		case <-p.ctx.Done():
			// Drain whatever was queued before shutdown: a scheduled GC
			// task holds an owner count on its region, so abandoning it
			// would strand the region's physical release.
			for {
				select {
				case task := <-p.tasks:
					task()
				default:
					return
				}
			}
		case task := <-p.tasks:
			task()
		}
	}
}

// Schedule enqueues work to run on some pool worker. A momentarily full
// channel blocks the caller until a worker frees a slot rather than
// failing, since scheduling a GC task always eventually succeeds.
func (p *Pool) Schedule(work func()) {
	select {
	case p.tasks <- work:
	case <-p.ctx.Done():
	}
}

// Close stops accepting new work and waits for queued and in-flight tasks
// to drain.
func (p *Pool) Close() {
	p.cancel()
	_ = p.group.Wait()
}

// Inline is a Scheduler that runs work synchronously on the calling
// goroutine. It is useful in tests that want deterministic GC timing.
type Inline struct{}

func (Inline) Schedule(work func()) { work() }
