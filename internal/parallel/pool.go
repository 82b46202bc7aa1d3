// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs render pipes on a fixed set of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("parallel: pool closed")

// Task is one unit of work, typically one pipe rendering one frame.
type Task func(ctx context.Context) error

// WorkerPool runs tasks on a fixed number of goroutines.
//
// Each worker owns a queue and steals from the others when its own queue
// is empty, so a slow pipe does not hold up work queued behind it.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu is held for reading while work is queued and for writing by
	// Close, so nothing is queued after the workers drain.
	mu sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers.
// Zero or a negative count means GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.loop(i)
	}
	return p
}

func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// Run executes every task and waits for all of them. Tasks that have not
// started when ctx is canceled are skipped. The result joins the errors of
// all tasks; a panicking task is reported as an error.
func (p *WorkerPool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		return ErrClosed
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		fn := func() {
			defer wg.Done()
			errs[i] = call(ctx, task)
		}
		select {
		case p.queues[i%p.workers] <- fn:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			wg.Done()
		}
	}
	p.mu.RUnlock()
	wg.Wait()
	return errors.Join(errs...)
}

func call(ctx context.Context, task Task) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parallel: task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Submit queues fn on the least loaded worker without waiting. It reports
// false when the pool is closed.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}
	idx := 0
	for i := 1; i < p.workers; i++ {
		if len(p.queues[i]) < len(p.queues[idx]) {
			idx = i
		}
	}
	p.queues[idx] <- fn
	return true
}

// Close stops accepting work, runs what is already queued and waits for
// the workers to exit. It is safe to call more than once.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }

// Queued returns the approximate number of queued work items.
func (p *WorkerPool) Queued() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}
