// Package scheduler provides the two execution contexts of perms:
// an async worker Pool for long-latency work like loading user data and
// the Sync tick executor for everything that touches live session or
// connection state.
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs functions asynchronously on at most n concurrent workers.
// Go never blocks the caller, work exceeding the limit waits for a free worker.
type Pool struct {
	ctx context.Context
	sem *semaphore.Weighted // nil if unbounded
	wg  sync.WaitGroup
}

// NewPool returns a Pool with at most workers concurrent functions.
// workers <= 0 means unbounded. Once ctx is done, queued functions
// still run, but without waiting for a free worker.
func NewPool(ctx context.Context, workers int) *Pool {
	p := &Pool{ctx: ctx}
	if workers > 0 {
		p.sem = semaphore.NewWeighted(int64(workers))
	}
	return p
}

// Go runs fn asynchronously.
func (p *Pool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			if err := p.sem.Acquire(p.ctx, 1); err == nil {
				defer p.sem.Release(1)
			}
		}
		fn()
	}()
}

// Wait blocks until all functions started with Go returned.
func (p *Pool) Wait() { p.wg.Wait() }
