// Package sim is a simulated host: an in-memory server that players join
// and leave, change worlds and game modes in and run commands on. It drives
// the same hooks a real host adapter would and backs the perms console.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
	"golang.org/x/exp/maps"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/query"
)

// Options are the options for a Server.
type Options struct {
	// Event receives the host events. Required.
	Event event.Manager
	// Source returns the command source commands of p run as,
	// usually its permission session. Defaults to p itself.
	Source func(p host.Player) command.Source
	// OnMessage is called for every message sent to a player.
	OnMessage func(p *Player, msg component.Component)
	Logger    logr.Logger
}

// Server is a simulated host.Server.
// Tick must be called on the synchronous tick context.
type Server struct {
	log      logr.Logger
	opts     Options
	commands *command.Manager

	mu         sync.RWMutex // protects following fields
	players    map[uuid.UUID]*Player
	handshakes map[uuid.UUID]*handshake
	operators  map[uuid.UUID]bool
	refreshes  map[uuid.UUID]int
}

type handshake struct {
	player *Player
	gate   host.Gate
}

var _ host.Server = (*Server)(nil)

// New returns a new Server with the built-in game commands registered.
// Call BuildCommands to announce them.
func New(opts Options) *Server {
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	if opts.Source == nil {
		opts.Source = func(p host.Player) command.Source { return p.(*Player) }
	}
	if opts.OnMessage == nil {
		opts.OnMessage = func(*Player, component.Component) {}
	}
	s := &Server{
		log:        opts.Logger.WithName("sim"),
		opts:       opts,
		commands:   new(command.Manager),
		players:    map[uuid.UUID]*Player{},
		handshakes: map[uuid.UUID]*handshake{},
		operators:  map[uuid.UUID]bool{},
		refreshes:  map[uuid.UUID]int{},
	}
	s.registerCommands()
	return s
}

// Commands returns the game command manager.
func (s *Server) Commands() *command.Manager { return s.commands }

// BuildCommands fires the CommandsBuiltEvent for the game commands.
func (s *Server) BuildCommands() {
	s.opts.Event.Fire(host.NewCommandsBuiltEvent(s.commands))
}

// Connect starts the handshake of a new connection. The player joins on the
// first Tick its negotiation gate is satisfied.
// A uuid.Nil id simulates an offline mode profile.
func (s *Server) Connect(id uuid.UUID, username, locale string) *Player {
	e := host.NewNegotiatingEvent(id, username)
	s.opts.Event.Fire(e)
	if gate := e.Gate(); gate != nil {
		if g, ok := gate.(interface{ ID() uuid.UUID }); ok {
			id = g.ID()
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	p := &Player{
		id:       id,
		username: username,
		s:        s,
		locale:   locale,
		env: query.Environment{
			World:         "world",
			GameMode:      "survival",
			DimensionType: "overworld",
		},
	}
	s.mu.Lock()
	s.handshakes[id] = &handshake{player: p, gate: e.Gate()}
	s.mu.Unlock()
	s.log.V(1).Info("player connecting", "name", username, "id", id)
	return p
}

// Tick polls the gates of all pending handshakes once
// and completes those that are satisfied.
func (s *Server) Tick() {
	s.mu.Lock()
	pending := maps.Values(s.handshakes)
	s.mu.Unlock()
	for _, h := range pending {
		if h.gate != nil {
			h.gate.Tick()
			if !h.gate.Satisfied() {
				continue
			}
		}
		s.mu.Lock()
		delete(s.handshakes, h.player.id)
		s.players[h.player.id] = h.player
		s.mu.Unlock()
		h.player.online.Store(true)
		s.log.Info("player joined", "name", h.player.username)
		s.opts.Event.Fire(host.NewPostLoginEvent(h.player))
	}
}

// Quit disconnects the player, also mid-handshake.
func (s *Server) Quit(id uuid.UUID) bool {
	s.mu.Lock()
	_, negotiating := s.handshakes[id]
	p, joined := s.players[id]
	delete(s.handshakes, id)
	delete(s.players, id)
	s.mu.Unlock()
	if !negotiating && !joined {
		return false
	}
	if p != nil {
		p.online.Store(false)
		s.log.Info("player left", "name", p.username)
	}
	s.opts.Event.Fire(host.NewLogoutEvent(id))
	return true
}

// Player returns an online player by id.
func (s *Server) Player(id uuid.UUID) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok
}

// PlayerByName returns an online player by case-insensitive name.
func (s *Server) PlayerByName(name string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if strings.EqualFold(p.username, name) {
			return p, true
		}
	}
	return nil, false
}

// Players returns all online players.
func (s *Server) Players() []*Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Values(s.players)
}

// SetWorld moves the player to world.
func (s *Server) SetWorld(p *Player, world, dimensionType string) {
	p.mu.Lock()
	p.env.World = world
	p.env.DimensionType = dimensionType
	p.mu.Unlock()
	s.opts.Event.Fire(host.NewEnvironmentChangedEvent(p, query.WorldKey))
}

// SetGameMode changes the game mode of the player.
func (s *Server) SetGameMode(p *Player, mode query.GameMode) {
	p.mu.Lock()
	p.env.GameMode = mode
	p.mu.Unlock()
	s.opts.Event.Fire(host.NewEnvironmentChangedEvent(p, query.GameModeKey))
}

// Respawn replaces the player object like hosts do after a respawn.
func (s *Server) Respawn(p *Player) *Player {
	p.mu.RLock()
	clone := &Player{
		id:       p.id,
		username: p.username,
		s:        s,
		env:      p.env,
		locale:   p.locale,
	}
	p.mu.RUnlock()
	clone.online.Store(true)
	p.gone.Store(true)

	s.mu.Lock()
	s.players[p.id] = clone
	s.mu.Unlock()
	s.opts.Event.Fire(host.NewRespawnEvent(clone))
	return clone
}

// RefreshCommands implements host.Server.
func (s *Server) RefreshCommands(player host.Player) {
	s.mu.Lock()
	s.refreshes[player.ID()]++
	s.mu.Unlock()
	s.log.V(1).Info("refreshed commands", "name", player.Username())
}

// Refreshes returns how often the commands of a player were refreshed.
func (s *Server) Refreshes(id uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshes[id]
}

// SetOperator implements host.Server.
func (s *Server) SetOperator(player host.Player, op bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == s.operators[player.ID()] {
		return
	}
	if op {
		s.operators[player.ID()] = true
	} else {
		delete(s.operators, player.ID())
	}
	s.log.Info("changed operator status", "name", player.Username(), "op", op)
}

// ClearOperators implements host.Server.
func (s *Server) ClearOperators() {
	s.mu.Lock()
	s.operators = map[uuid.UUID]bool{}
	s.mu.Unlock()
}

// IsOperator reports whether the player is an operator.
func (s *Server) IsOperator(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operators[id]
}

// ExecuteCommand runs a command line as player p. It fires a
// command.CommandExecuteEvent first and does nothing if it was denied.
// hasRun is false if the command is unknown.
func (s *Server) ExecuteCommand(ctx context.Context, p *Player, commandline string) (hasRun bool, err error) {
	src := s.opts.Source(p)
	e := command.NewCommandExecuteEvent(src, strings.TrimPrefix(strings.TrimSpace(commandline), "/"))
	s.opts.Event.Fire(e)
	if !e.Allowed() {
		return true, nil
	}

	log := s.log.WithValues("name", p.username)
	if e.Command() == e.OriginalCommand() {
		log = log.WithValues("command", e.Command())
	} else {
		log = log.WithValues("original", e.OriginalCommand(), "changed", e.Command())
	}
	log.Info("Player executed command")

	ctx = context.WithValue(ctx, playerCtxKey{}, p)
	err = s.commands.Do(ctx, src, e.Command())
	if err != nil {
		if errors.Is(err, brigodier.ErrDispatcherUnknownCommand) {
			return false, nil
		}
		var sErr *brigodier.CommandSyntaxError
		if errors.As(err, &sErr) {
			return true, src.SendMessage(&component.Text{
				Content: sErr.Error(),
				S:       component.Style{Color: color.Red},
			})
		}
		return false, fmt.Errorf("error running command %q: %w", e.Command(), err)
	}
	return true, nil
}
