package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/go-logr/logr"
	"go.uber.org/atomic"
)

// Sync is the synchronous tick execution context.
//
// Functions passed to Execute run on the next Tick, in submission order,
// followed by every tick hook. Everything run by Sync runs on one goroutine
// at a time, so code only ever called from it needs no locking.
type Sync struct {
	log   logr.Logger
	ticks atomic.Uint64

	mu    sync.Mutex // protects following fields
	queue deque.Deque[func()]
	hooks []*tickHook
}

type tickHook struct{ fn func() }

// NewSync returns a new Sync executor.
func NewSync(log logr.Logger) *Sync {
	return &Sync{log: log}
}

// Execute schedules fn to run on the next tick.
// It can be called from any goroutine and never blocks.
func (s *Sync) Execute(fn func()) {
	s.mu.Lock()
	s.queue.PushBack(fn)
	s.mu.Unlock()
}

// Go implements future.Executor and is equal to Execute.
func (s *Sync) Go(fn func()) { s.Execute(fn) }

// OnTick registers fn to run at the end of every tick
// and returns a func to remove it again.
func (s *Sync) OnTick(fn func()) (remove func()) {
	h := &tickHook{fn: fn}
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.hooks {
			if o == h {
				s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
				return
			}
		}
	}
}

// Ticks returns the number of completed ticks.
func (s *Sync) Ticks() uint64 { return s.ticks.Load() }

// Pending returns the number of functions waiting for the next tick.
func (s *Sync) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Tick runs all functions queued before the call, then all tick hooks.
// Functions queued while ticking run on the next tick.
// Tick must not be called concurrently.
func (s *Sync) Tick() {
	s.mu.Lock()
	n := s.queue.Len()
	batch := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, s.queue.PopFront())
	}
	hooks := append([]*tickHook(nil), s.hooks...)
	s.mu.Unlock()

	for _, fn := range batch {
		s.run(fn)
	}
	for _, h := range hooks {
		s.run(h.fn)
	}
	s.ticks.Inc()
}

func (s *Sync) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Errorf("%v", r), "recovered panic in sync task")
		}
	}()
	fn()
}

// Run ticks every period until ctx is done.
// Remaining queued functions are run once more before returning.
func (s *Sync) Run(ctx context.Context, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Tick()
			return nil
		case <-t.C:
			s.Tick()
		}
	}
}
