package negotiation

import (
	"github.com/google/uuid"

	"go.minekube.com/perms/pkg/internal/future"
)

// NegotiationEvent is fired once per connection on the first handshake tick.
// Subscribers can enqueue asynchronous work the handshake must wait for.
type NegotiationEvent struct {
	id       uuid.UUID
	username string
	gate     *Gate
}

// ID returns the identity of the negotiating player.
func (e *NegotiationEvent) ID() uuid.UUID { return e.id }

// Username returns the name of the negotiating player.
func (e *NegotiationEvent) Username() string { return e.username }

// EnqueueWork makes the handshake wait for t to resolve.
func (e *NegotiationEvent) EnqueueWork(t *future.Task) { e.gate.Enqueue(t) }
