// Package parallel provides a fixed-size worker pool with a fork-join
// parallel-for helper for partitioning row-indexed work.
package parallel

import "sync"

// Pool implements a fixed-size worker pool for parallel task execution.
// Design rationale:
// - Fixed goroutine pool to minimize scheduling overhead
// - Buffered job channel (3× worker count) to reduce contention
// - Thread-safe concurrent submission via sync.WaitGroup
type Pool struct {
	jobs    chan poolJob
	workers int
}

type poolJob struct {
	fn func()
	wg *sync.WaitGroup
}

// New creates a pool with size workers. Returns nil for size <= 1; a nil
// *Pool is valid and runs everything serially.
func New(size int) *Pool {
	if size <= 1 {
		return nil
	}
	p := &Pool{jobs: make(chan poolJob, size*3), workers: size}
	for i := 0; i < size; i++ {
		go func() {
			for job := range p.jobs {
				job.fn()
				job.wg.Done()
			}
		}()
	}
	return p
}

// Workers returns the number of worker goroutines; 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Run submits tasks and blocks until all of them complete. Nil tasks are
// skipped. Safe for concurrent use from multiple goroutines.
func (p *Pool) Run(tasks ...func()) {
	if p == nil {
		for _, task := range tasks {
			if task != nil {
				task()
			}
		}
		return
	}
	var wg sync.WaitGroup
	for _, task := range tasks {
		if task == nil {
			continue
		}
		wg.Add(1)
		p.jobs <- poolJob{fn: task, wg: &wg}
	}
	wg.Wait()
}

// Close shuts the workers down. The pool must not be used afterwards.
func (p *Pool) Close() {
	if p != nil {
		close(p.jobs)
	}
}

// For partitions [0, n) into contiguous chunks of at least minPerTask
// indices, runs fn(start, end) for each chunk on the pool, and blocks until
// every chunk completes. Each index is covered exactly once. Work runs
// serially when the pool is nil or the chunk count would not exceed one;
// dispatch overhead dominates below that point.
func For(p *Pool, n, minPerTask int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minPerTask < 1 {
		minPerTask = 1
	}

	chunks := p.Workers()
	if max := (n + minPerTask - 1) / minPerTask; chunks > max {
		chunks = max
	}
	if p == nil || chunks <= 1 {
		fn(0, n)
		return
	}

	per := (n + chunks - 1) / chunks
	tasks := make([]func(), 0, chunks)
	for start := 0; start < n; start += per {
		end := start + per
		if end > n {
			end = n
		}
		lo, hi := start, end
		tasks = append(tasks, func() { fn(lo, hi) })
	}
	p.Run(tasks...)
}
