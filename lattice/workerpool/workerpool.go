// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool runs site-parallel kernels on a persistent set of
// goroutines. A Pool is created once per engine and reused by every packing,
// interior and exterior pass, so that a stencil application spawns no
// goroutines of its own.
//
// Kernels receive half-open ranges of site indices:
//
//	pool := workerpool.New(0)
//	defer pool.Close()
//
//	err := pool.Range(volume, func(start, end int) {
//	    for site := start; site < end; site++ {
//	        apply(site)
//	    }
//	})
//
// A panic inside a kernel is recovered and returned as an error from the
// call that launched it; the pool itself stays usable.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of workers. It is safe for concurrent use; concurrent
// Range calls interleave their chunks on the same workers.
type Pool struct {
	workers   int
	tasks     chan task
	closeOnce sync.Once
	closed    atomic.Bool
}

type task struct {
	fn   func()
	done *sync.WaitGroup
}

// New starts a pool with the given number of workers, or GOMAXPROCS workers
// when workers <= 0.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan task, workers*2),
	}
	for range workers {
		go p.loop()
	}
	return p
}

func (p *Pool) loop() {
	for t := range p.tasks {
		t.fn()
		t.done.Done()
	}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after queued chunks finish. Ranges issued after
// Close run on the calling goroutine. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.tasks)
	})
}

// panicTrap records the first panic raised by any chunk of one call.
type panicTrap struct {
	once sync.Once
	err  error
}

func (pt *panicTrap) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			pt.once.Do(func() {
				pt.err = fmt.Errorf("workerpool: kernel panicked: %v", r)
			})
		}
	}()
	fn()
}

// Range calls fn over [0, n) split into one contiguous chunk per worker and
// blocks until every chunk has returned.
func (p *Pool) Range(n int, fn func(start, end int)) error {
	if n <= 0 {
		return nil
	}
	var trap panicTrap
	workers := min(p.workers, n)
	if workers == 1 || p.closed.Load() {
		trap.run(func() { fn(0, n) })
		return trap.err
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		p.tasks <- task{
			fn:   func() { trap.run(func() { fn(start, end) }) },
			done: &wg,
		}
	}
	wg.Wait()
	return trap.err
}

// RangeBatched calls fn over [0, n) in batches of the given size handed out
// by atomic work stealing. It balances kernels whose per-site cost varies,
// such as exterior passes over faces of different depth.
func (p *Pool) RangeBatched(n, batch int, fn func(start, end int)) error {
	if n <= 0 {
		return nil
	}
	if batch <= 0 {
		batch = 1
	}
	var trap panicTrap
	batches := (n + batch - 1) / batch
	workers := min(p.workers, batches)
	if workers == 1 || p.closed.Load() {
		trap.run(func() { fn(0, n) })
		return trap.err
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.tasks <- task{
			fn: func() {
				trap.run(func() {
					for {
						start := int(next.Add(1)-1) * batch
						if start >= n {
							return
						}
						fn(start, min(start+batch, n))
					}
				})
			},
			done: &wg,
		}
	}
	wg.Wait()
	return trap.err
}
