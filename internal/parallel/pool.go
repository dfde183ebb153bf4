// Package parallel runs write-disjoint tile work on a shared worker pool.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines fed from one queue.
//
// Run lets the calling goroutine take part in its own batch, so a task may
// itself call Run without risking deadlock when every worker is busy.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), max(workers*4, 8)),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

var (
	defaultOnce sync.Once
	defaultPool *WorkerPool
)

// Default returns a process-wide pool sized to GOMAXPROCS. It is never
// closed.
func Default() *WorkerPool {
	defaultOnce.Do(func() { defaultPool = NewWorkerPool(0) })
	return defaultPool
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case work := <-p.queue:
			work()
		}
	}
}

// trySubmit queues fn without blocking.
func (p *WorkerPool) trySubmit(fn func()) bool {
	if !p.running.Load() {
		return false
	}
	select {
	case p.queue <- fn:
		return true
	default:
		return false
	}
}

// Run calls fn(i) for every i in [0, n) and returns the first error.
// Indices are claimed in increasing order, so callers can sort work by
// priority. After an error no further indices are started.
func (p *WorkerPool) Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	var (
		next     atomic.Int64
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
	)
	loop := func() {
		for !failed.Load() {
			i := int(next.Add(1) - 1)
			if i >= n {
				return
			}
			if err := fn(i); err != nil {
				errOnce.Do(func() { firstErr = err })
				failed.Store(true)
			}
		}
	}

	// Helpers that have not started by the time the caller finishes the
	// batch return without touching it; only started helpers are awaited.
	var (
		mu      sync.Mutex
		closed  bool
		started sync.WaitGroup
	)
	helper := func() {
		mu.Lock()
		if closed {
			mu.Unlock()
			return
		}
		started.Add(1)
		mu.Unlock()
		defer started.Done()
		loop()
	}
	for range min(p.workers, n) - 1 {
		if !p.trySubmit(helper) {
			break
		}
	}

	loop()
	mu.Lock()
	closed = true
	mu.Unlock()
	started.Wait()
	return firstErr
}

// Close stops the workers. Queued work that has not started is dropped;
// Run calls in progress complete on their calling goroutine.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
