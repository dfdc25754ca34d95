package host

import (
	"github.com/google/uuid"

	"go.minekube.com/perms/pkg/command"
)

// NegotiatingEvent is fired when a connection starts its handshake.
// The coordinator returns the gate the handshake must poll via SetGate.
type NegotiatingEvent struct {
	id       uuid.UUID
	username string
	gate     Gate
}

// Gate is polled by the host once per handshake tick.
type Gate interface {
	Tick() (pending bool)
	Satisfied() bool
}

// NewNegotiatingEvent returns a new NegotiatingEvent.
func NewNegotiatingEvent(id uuid.UUID, username string) *NegotiatingEvent {
	return &NegotiatingEvent{id: id, username: username}
}

// ID returns the identity of the connecting player.
// It is uuid.Nil for offline profiles.
func (e *NegotiatingEvent) ID() uuid.UUID { return e.id }

// Username returns the name of the connecting player.
func (e *NegotiatingEvent) Username() string { return e.username }

// Gate returns the gate set by a subscriber or nil.
func (e *NegotiatingEvent) Gate() Gate { return e.gate }

// SetGate sets the gate the handshake must wait for.
func (e *NegotiatingEvent) SetGate(g Gate) { e.gate = g }

// PostLoginEvent is fired once the handshake completed
// and the player joined the server.
type PostLoginEvent struct{ player Player }

// NewPostLoginEvent returns a new PostLoginEvent.
func NewPostLoginEvent(p Player) *PostLoginEvent { return &PostLoginEvent{player: p} }

// Player returns the player that joined.
func (e *PostLoginEvent) Player() Player { return e.player }

// LogoutEvent is fired when a connection closed,
// also if it never completed the handshake.
type LogoutEvent struct{ id uuid.UUID }

// NewLogoutEvent returns a new LogoutEvent.
func NewLogoutEvent(id uuid.UUID) *LogoutEvent { return &LogoutEvent{id: id} }

// ID returns the identity of the player that left.
func (e *LogoutEvent) ID() uuid.UUID { return e.id }

// EnvironmentChangedEvent is fired when the world, game mode or another
// context source of a player changed.
type EnvironmentChangedEvent struct {
	player Player
	key    string
}

// NewEnvironmentChangedEvent returns a new EnvironmentChangedEvent
// for the context key that changed.
func NewEnvironmentChangedEvent(p Player, key string) *EnvironmentChangedEvent {
	return &EnvironmentChangedEvent{player: p, key: key}
}

// Player returns the player whose environment changed.
func (e *EnvironmentChangedEvent) Player() Player { return e.player }

// Key returns the context key that changed, e.g. query.WorldKey.
func (e *EnvironmentChangedEvent) Key() string { return e.key }

// RespawnEvent is fired when the host replaced the player object,
// e.g. after respawning or changing dimensions.
type RespawnEvent struct{ player Player }

// NewRespawnEvent returns a new RespawnEvent.
func NewRespawnEvent(p Player) *RespawnEvent { return &RespawnEvent{player: p} }

// Player returns the new player object.
func (e *RespawnEvent) Player() Player { return e.player }

// CommandsBuiltEvent is fired after the host (re)built its command graph.
type CommandsBuiltEvent struct{ manager *command.Manager }

// NewCommandsBuiltEvent returns a new CommandsBuiltEvent.
func NewCommandsBuiltEvent(m *command.Manager) *CommandsBuiltEvent {
	return &CommandsBuiltEvent{manager: m}
}

// Manager returns the command manager whose graph was built.
func (e *CommandsBuiltEvent) Manager() *command.Manager { return e.manager }
