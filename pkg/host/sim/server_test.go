package sim

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/query"
)

type gateFunc func() bool

func (f gateFunc) Tick() bool      { return !f() }
func (f gateFunc) Satisfied() bool { return f() }

func TestServer_Lifecycle(t *testing.T) {
	mgr := event.New()
	s := New(Options{Event: mgr, Logger: logr.Discard()})

	var (
		joined []uuid.UUID
		left   []uuid.UUID
	)
	event.Subscribe(mgr, 0, func(e *host.PostLoginEvent) { joined = append(joined, e.Player().ID()) })
	event.Subscribe(mgr, 0, func(e *host.LogoutEvent) { left = append(left, e.ID()) })

	ready := false
	event.Subscribe(mgr, 0, func(e *host.NegotiatingEvent) {
		e.SetGate(gateFunc(func() bool { return ready }))
	})

	id := uuid.New()
	p := s.Connect(id, "Notch", "en_us")
	s.Tick()
	require.False(t, p.Online())
	require.Empty(t, joined)
	_, ok := p.Environment()
	require.False(t, ok)

	ready = true
	s.Tick()
	require.True(t, p.Online())
	require.Equal(t, []uuid.UUID{id}, joined)
	env, ok := p.Environment()
	require.True(t, ok)
	require.Equal(t, "world", env.World)

	got, ok := s.PlayerByName("notch")
	require.True(t, ok)
	require.Same(t, p, got)

	require.True(t, s.Quit(id))
	require.False(t, s.Quit(id))
	require.False(t, p.Online())
	require.Equal(t, []uuid.UUID{id}, left)
}

func TestServer_QuitWhileNegotiating(t *testing.T) {
	mgr := event.New()
	s := New(Options{Event: mgr, Logger: logr.Discard()})
	event.Subscribe(mgr, 0, func(e *host.NegotiatingEvent) {
		e.SetGate(gateFunc(func() bool { return false }))
	})
	var left int
	event.Subscribe(mgr, 0, func(*host.LogoutEvent) { left++ })

	p := s.Connect(uuid.New(), "jeb_", "en_us")
	require.True(t, s.Quit(p.ID()))
	s.Tick()
	require.False(t, p.Online())
	require.Equal(t, 1, left)
}

func TestServer_Respawn(t *testing.T) {
	mgr := event.New()
	s := New(Options{Event: mgr, Logger: logr.Discard()})
	var respawned host.Player
	event.Subscribe(mgr, 0, func(e *host.RespawnEvent) { respawned = e.Player() })

	p := s.Connect(uuid.New(), "Dinnerbone", "de_de")
	s.Tick()
	s.SetWorld(p, "world_nether", "the_nether")

	clone := s.Respawn(p)
	require.NotSame(t, p, clone)
	require.Equal(t, host.Player(clone), respawned)

	_, ok := p.Environment()
	assert.False(t, ok, "old player object is gone")
	env, ok := clone.Environment()
	require.True(t, ok)
	assert.Equal(t, "world_nether", env.World)
	assert.Equal(t, "the_nether", env.DimensionType)
	assert.Equal(t, "de_de", clone.Locale())
}

func TestServer_ExecuteCommand(t *testing.T) {
	mgr := event.New()
	s := New(Options{Event: mgr, Logger: logr.Discard()})
	var changed []string
	event.Subscribe(mgr, 0, func(e *host.EnvironmentChangedEvent) { changed = append(changed, e.Key()) })

	p := s.Connect(uuid.New(), "Notch", "en_us")
	s.Tick()
	ctx := context.Background()

	hasRun, err := s.ExecuteCommand(ctx, p, "/list")
	require.NoError(t, err)
	require.True(t, hasRun)
	require.Len(t, p.Messages(), 1)

	hasRun, err = s.ExecuteCommand(ctx, p, "gamemode creative")
	require.NoError(t, err)
	require.False(t, hasRun, "requires operator")

	s.SetOperator(p, true)
	require.True(t, p.IsOperator())
	hasRun, err = s.ExecuteCommand(ctx, p, "gamemode creative")
	require.NoError(t, err)
	require.True(t, hasRun)
	env, _ := p.Environment()
	require.Equal(t, query.GameMode("creative"), env.GameMode)
	require.Equal(t, []string{query.GameModeKey}, changed)

	s.ClearOperators()
	require.False(t, p.IsOperator())
}

func TestServer_RefreshCommands(t *testing.T) {
	s := New(Options{Logger: logr.Discard()})
	p := s.Connect(uuid.New(), "Notch", "en_us")
	s.RefreshCommands(p)
	s.RefreshCommands(p)
	require.Equal(t, 2, s.Refreshes(p.ID()))
}
