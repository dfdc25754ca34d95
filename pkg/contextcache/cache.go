// Package contextcache caches the QueryOptions of a session and
// recomputes them lazily after the session's environment changed.
package contextcache

import (
	"sync"

	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/query"
)

// ComputeFunc calculates QueryOptions from the live environment.
// It returns ok=false if the environment is not available anymore,
// e.g. while the session is being torn down.
type ComputeFunc func() (opts *query.QueryOptions, ok bool)

// Cache holds the last computed QueryOptions of a session.
//
// Invalidate only marks the cache dirty. Any number of invalidations
// before the next read collapse into a single recomputation
// reflecting the environment at read time.
type Cache struct {
	compute ComputeFunc

	version    atomic.Uint64 // incremented by Invalidate
	current    atomic.Pointer[entry]
	closed     atomic.Bool
	recomputes atomic.Uint64

	mu sync.Mutex // serializes recomputation
}

type entry struct {
	opts    *query.QueryOptions
	version uint64 // version the options were computed at
}

// New returns a Cache computing QueryOptions with compute.
// The first read computes.
func New(compute ComputeFunc) *Cache {
	return &Cache{compute: compute}
}

// QueryOptions returns the current QueryOptions, recomputing them if the
// cache was invalidated since the last computation. It is safe for
// concurrent use with Invalidate and never returns a half-updated value.
func (c *Cache) QueryOptions() *query.QueryOptions {
	if e, ok := c.valid(); ok {
		return e.opts
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another reader may have recomputed while we waited
	e, ok := c.valid()
	if ok {
		return e.opts
	}
	if c.closed.Load() {
		return stale(e)
	}

	// Read the version before computing so an invalidation racing with
	// the computation leaves the stored entry outdated.
	v := c.version.Load()
	opts, ok := c.compute()
	if !ok {
		return stale(e)
	}
	if opts == nil {
		opts = query.Empty
	}
	c.current.Store(&entry{opts: opts, version: v})
	c.recomputes.Inc()
	return opts
}

// Invalidate marks the cached QueryOptions as outdated.
// It can be called from any goroutine and never blocks.
func (c *Cache) Invalidate() { c.version.Inc() }

// Peek returns the last computed QueryOptions without recomputing,
// or query.Empty if nothing was computed yet.
func (c *Cache) Peek() *query.QueryOptions { return stale(c.current.Load()) }

// Close stops all further recomputation.
// Reads return the last computed QueryOptions from now on.
func (c *Cache) Close() { c.closed.Store(true) }

// Recomputes returns how many times QueryOptions were computed.
func (c *Cache) Recomputes() uint64 { return c.recomputes.Load() }

func (c *Cache) valid() (*entry, bool) {
	e := c.current.Load()
	return e, e != nil && e.version == c.version.Load()
}

func stale(e *entry) *query.QueryOptions {
	if e == nil {
		return query.Empty
	}
	return e.opts
}
