// Package debounce coalesces bursts of per-key change signals
// into a single delayed action.
package debounce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/internal/future"
)

// Defaults used for zero Options values.
const (
	DefaultDelay       = 500 * time.Millisecond
	DefaultIdleTimeout = 10 * time.Second
)

// PerformFunc is the action run once per quiet period of a key.
// It must re-check whether the subject behind key still exists.
type PerformFunc[K comparable] func(key K)

// Options are the options for a Notifier.
type Options struct {
	// Delay is the quiet period after the last request before performing.
	Delay time.Duration
	// IdleTimeout evicts keys without requests for that long.
	IdleTimeout time.Duration
	// Executor runs the PerformFunc, usually the synchronous tick executor.
	// Defaults to a new goroutine per action.
	Executor future.Executor
	Logger   logr.Logger
}

// Notifier debounces requests per key.
//
// A request resets the pending deadline of its key instead of stacking
// another one. Actions of one key never run concurrently, and a request
// arriving while the action runs is debounced again after it finished.
type Notifier[K comparable] struct {
	log     logr.Logger
	delay   time.Duration
	exec    future.Executor
	perform PerformFunc[K]

	mu      sync.Mutex // serializes bucket creation
	buckets *ttlcache.Cache[K, *bucket]

	performed atomic.Uint64
}

type bucket struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // incremented per scheduled timer
	running bool   // action is executing
	pending bool   // requested while running
	closed  bool
}

// New returns a Notifier running perform for debounced keys.
// Call Start to begin evicting idle keys.
func New[K comparable](perform PerformFunc[K], opts Options) *Notifier[K] {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Executor == nil {
		opts.Executor = future.GoroutineExecutor
	}
	n := &Notifier[K]{
		log:     opts.Logger.WithName("debounce"),
		delay:   opts.Delay,
		exec:    opts.Executor,
		perform: perform,
		buckets: ttlcache.New[K, *bucket](
			ttlcache.WithTTL[K, *bucket](opts.IdleTimeout),
		),
	}
	n.buckets.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[K, *bucket]) {
		item.Value().close()
	})
	return n
}

// Start evicts idle keys until Stop is called. It blocks.
func (n *Notifier[K]) Start() { n.buckets.Start() }

// Stop stops idle eviction and cancels all scheduled actions.
func (n *Notifier[K]) Stop() {
	n.buckets.Stop()
	n.buckets.DeleteAll()
}

// Request schedules the action for key after the debounce delay,
// replacing any action already scheduled for key.
// It can be called from any goroutine.
func (n *Notifier[K]) Request(key K) {
	b := n.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.running {
		b.pending = true
		return
	}
	n.schedule(key, b)
}

// Evict drops key and cancels its scheduled action.
func (n *Notifier[K]) Evict(key K) { n.buckets.Delete(key) }

// Len returns the number of tracked keys.
func (n *Notifier[K]) Len() int { return n.buckets.Len() }

// Performed returns the number of actions run.
func (n *Notifier[K]) Performed() uint64 { return n.performed.Load() }

// bucket returns the bucket of key, creating it if needed.
// Getting an existing bucket resets its idle timeout.
func (n *Notifier[K]) bucket(key K) *bucket {
	n.mu.Lock()
	defer n.mu.Unlock()
	if item := n.buckets.Get(key); item != nil {
		return item.Value()
	}
	b := new(bucket)
	n.buckets.Set(key, b, ttlcache.DefaultTTL)
	return b
}

// schedule (re)arms the timer of b. b.mu must be held.
func (n *Notifier[K]) schedule(key K, b *bucket) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(n.delay, func() { n.fire(key, b, gen) })
}

func (n *Notifier[K]) fire(key K, b *bucket, gen uint64) {
	b.mu.Lock()
	// a stopped timer may still fire if it raced with Stop
	if b.closed || b.gen != gen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.running = true
	b.mu.Unlock()

	n.exec.Go(func() { n.run(key, b) })
}

func (n *Notifier[K]) run(key K, b *bucket) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error(fmt.Errorf("%v", r), "recovered panic in debounced action", "key", key)
		}
		b.mu.Lock()
		b.running = false
		if b.pending && !b.closed {
			b.pending = false
			n.schedule(key, b)
		}
		b.mu.Unlock()
	}()
	n.performed.Inc()
	n.log.V(1).Info("performing debounced action", "key", key)
	n.perform(key)
}

func (b *bucket) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.pending = false
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
