// Package negotiation gates the handshake of a connection on
// asynchronous setup work like loading the user's permission data.
//
// A Gate is polled once per handshake tick on the synchronous context and
// never blocks the goroutine driving the connection.
package negotiation

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/internal/future"
)

// Gate tracks pending tasks that must resolve before a handshake proceeds.
type Gate struct {
	log      logr.Logger
	eventMgr event.Manager
	id       uuid.UUID
	username string

	fired atomic.Bool // whether NegotiationEvent was fired

	mu    sync.Mutex // protects tasks
	tasks []*future.Task
}

// NewGate returns a Gate for the connection of the given player.
// The NegotiationEvent is fired on eventMgr with the first Tick.
func NewGate(log logr.Logger, eventMgr event.Manager, id uuid.UUID, username string) *Gate {
	if eventMgr == nil {
		eventMgr = event.Nop
	}
	return &Gate{
		log:      log.WithName("negotiation").WithValues("player", username, "id", id),
		eventMgr: eventMgr,
		id:       id,
		username: username,
	}
}

// ID returns the identity of the negotiating player.
func (g *Gate) ID() uuid.UUID { return g.id }

// Enqueue registers a task the handshake must wait for.
// It may be called from any goroutine and never blocks.
func (g *Gate) Enqueue(t *future.Task) {
	if t == nil {
		return
	}
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
}

// Tick removes all resolved tasks and reports whether tasks remain.
// The first call fires the NegotiationEvent before sweeping, so tasks
// enqueued by subscribers are seen by the same sweep.
// Tick must be called on the synchronous context.
func (g *Gate) Tick() (pending bool) {
	if g.fired.CompareAndSwap(false, true) {
		g.eventMgr.Fire(&NegotiationEvent{id: g.id, username: g.username, gate: g})
	}
	return g.sweep() != 0
}

// Satisfied reports whether the NegotiationEvent was fired
// and no tasks remain.
func (g *Gate) Satisfied() bool {
	if !g.fired.Load() {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks) == 0
}

// Pending returns the number of tasks not yet swept.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// Drain waits until every enqueued task resolved and sweeps them.
// It is used when a connection is torn down mid-negotiation
// and marks the gate as initialized without firing the event.
func (g *Gate) Drain(ctx context.Context) error {
	g.fired.Store(true)
	for {
		g.mu.Lock()
		tasks := append([]*future.Task(nil), g.tasks...)
		g.mu.Unlock()
		for _, t := range tasks {
			select {
			case <-t.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if g.sweep() == 0 {
			return nil
		}
	}
}

// sweep removes resolved tasks, logs failures and returns the remaining count.
func (g *Gate) sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.tasks[:0]
	for _, t := range g.tasks {
		if !t.IsDone() {
			kept = append(kept, t)
			continue
		}
		switch t.State() {
		case future.Failed:
			g.log.Error(t.Err(), "Error during negotiation", "task", t.Name())
		case future.Canceled:
			g.log.V(1).Info("negotiation task canceled", "task", t.Name())
		}
	}
	// release references to swept tasks
	for i := len(kept); i < len(g.tasks); i++ {
		g.tasks[i] = nil
	}
	g.tasks = kept
	return len(g.tasks)
}
