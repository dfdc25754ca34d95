// Package host is the boundary to the game server framework perms runs in.
//
// A host adapter implements Player and Server for the framework's types and
// reports connection lifecycle and environment changes by calling the
// session.Coordinator, or by firing the events of this package on the
// event manager the coordinator subscribed to.
package host

import (
	"github.com/google/uuid"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/pkg/query"
)

// Player is a player connected to the host.
type Player interface {
	ID() uuid.UUID
	Username() string
	// Environment returns the live state contexts are calculated from.
	// It returns false once the player is gone.
	Environment() (query.Environment, bool)
	// Locale returns the locale reported by the client, e.g. "en_us".
	Locale() string
	// Online reports whether the connection is still open.
	Online() bool
	// SendMessage sends a chat message.
	SendMessage(msg component.Component) error
	// Disconnect closes the connection with reason.
	Disconnect(reason component.Component)
}

// Server is the host framework itself.
// Its methods are only called on the synchronous tick context.
type Server interface {
	// RefreshCommands resends the command tree to player,
	// so that the client reflects changed permissions.
	RefreshCommands(player Player)
	// SetOperator grants or revokes server operator status.
	SetOperator(player Player, op bool)
	// ClearOperators revokes operator status of everyone.
	ClearOperators()
}

// Operator is implemented by players that know whether they are an operator.
type Operator interface {
	IsOperator() bool
}
