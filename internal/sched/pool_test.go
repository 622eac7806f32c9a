package sched

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllScheduledWork(t *testing.T) {
	p, err := NewPool(Config{Workers: 4, Capacity: 64})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	const tasks = 5000
	var ran atomic.Int64
	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		p.Schedule(func() {
			ran.Add(1)
			wg.Done()
		})
	}
	wg.Wait()

	if got := ran.Load(); got != tasks {
		t.Fatalf("ran %d tasks, want %d", got, tasks)
	}
}

func TestInlineSchedulerRunsSynchronously(t *testing.T) {
	var ran bool
	Inline{}.Schedule(func() { ran = true })
	if !ran {
		t.Fatalf("Inline.Schedule did not run its closure before returning")
	}
}

// TestPoolCloseWaitsForRunningTask checks that Close blocks until a task
// already picked up by a worker finishes, rather than tearing the worker
// down mid-task.
func TestPoolCloseWaitsForRunningTask(t *testing.T) {
	p, err := NewPool(Config{Workers: 1, Capacity: 1})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	started := make(chan struct{})
	var finished atomic.Bool
	p.Schedule(func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	<-started
	p.Close()

	if !finished.Load() {
		t.Fatalf("Close returned before its in-flight task finished")
	}
}
