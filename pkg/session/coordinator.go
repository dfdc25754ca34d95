// Package session binds loaded permission data to connected players.
//
// The Coordinator gates the handshake of every connection on loading the
// player's data, owns a Session per joined player and keeps the session's
// cached contexts and the client's command tree in sync with environment
// and rule changes until the player leaves.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"go.minekube.com/perms/pkg/contextcache"
	"go.minekube.com/perms/pkg/debounce"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/i18n"
	"go.minekube.com/perms/pkg/internal/future"
	"go.minekube.com/perms/pkg/negotiation"
	uuidutil "go.minekube.com/perms/pkg/util/uuid"
)

// AutoOpPermission grants operator status if Options.AutoOp is set.
const AutoOpPermission = "perms.autoop"

// drainTimeout bounds waiting for the loads of aborted negotiations.
const drainTimeout = 30 * time.Second

var (
	// ErrAlreadyStarted is returned by Start if called twice.
	ErrAlreadyStarted = errors.New("coordinator already started")
	// ErrUnknownSession is returned for players without a negotiation or session.
	ErrUnknownSession = errors.New("unknown session")
	// ErrAlreadyActive is returned by PostLogin for players with a session.
	ErrAlreadyActive = errors.New("session already active")
	// ErrDataNotLoaded is returned by PostLogin if the player was
	// disconnected because its data could not be loaded.
	ErrDataNotLoaded = errors.New("permission data not loaded")
)

// Coordinator owns the sessions of all connected players.
type Coordinator struct {
	log      logr.Logger
	opts     Options
	limiter  *rate.Limiter
	loads    singleflight.Group
	notifier *debounce.Notifier[uuid.UUID]

	ctx    context.Context // canceled on shutdown
	cancel context.CancelFunc

	started atomic.Bool

	mu           sync.RWMutex // protects following fields
	negotiations map[uuid.UUID]*pending
	sessions     map[uuid.UUID]*Session
	connections  mapset.Set[uuid.UUID] // every identity that started negotiating

	loops sync.WaitGroup // session loops

	loadCounter    metric.Int64Counter
	refreshCounter metric.Int64Counter
}

// pending is a connection in negotiation.
type pending struct {
	gate   *negotiation.Gate
	task   *future.Task
	cancel context.CancelFunc
}

// New returns a new Coordinator.
func New(opts Options) (*Coordinator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		log:          opts.Logger.WithName("session"),
		opts:         opts,
		limiter:      opts.Policy.limiter(),
		ctx:          ctx,
		cancel:       cancel,
		negotiations: map[uuid.UUID]*pending{},
		sessions:     map[uuid.UUID]*Session{},
		connections:  mapset.New[uuid.UUID](),
	}
	c.notifier = debounce.New(c.refresh, debounce.Options{
		Delay:       opts.NotifyDelay,
		IdleTimeout: opts.NotifyIdleTimeout,
		Executor:    opts.Sync,
		Logger:      c.log,
	})
	if err := c.initMeter(); err != nil {
		cancel()
		return nil, fmt.Errorf("error initializing metrics: %w", err)
	}
	return c, nil
}

// Start runs the coordinator until ctx is canceled and then disconnects
// every session, waiting for all pending loads to drain.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if c.opts.DisableOps {
		c.opts.Sync.Execute(c.opts.Server.ClearOperators)
	}
	go c.notifier.Start()
	c.log.Info("session coordinator started")

	<-ctx.Done()
	c.shutdown()
	return nil
}

func (c *Coordinator) shutdown() {
	c.notifier.Stop()
	c.cancel()

	c.mu.RLock()
	ids := append(maps.Keys(c.negotiations), maps.Keys(c.sessions)...)
	c.mu.RUnlock()
	for _, id := range ids {
		c.Logout(id)
	}
	c.loops.Wait()
	c.log.Info("session coordinator stopped", "closed", len(ids))
}

// Negotiate starts loading the data of a connecting player and returns
// the gate its handshake must wait for. A uuid.Nil id is replaced by the
// offline identity of username.
func (c *Coordinator) Negotiate(id uuid.UUID, username string) *negotiation.Gate {
	if id == uuid.Nil {
		id = uuidutil.Offline(username)
	}
	log := c.log.WithValues("name", username, "id", id)
	if c.opts.Policy.DebugLogins {
		log.Info("Processing pre-login (sync phase)")
	}

	gate := negotiation.NewGate(c.log, c.opts.Event, id, username)
	ctx, cancel := context.WithCancel(c.ctx)
	p := &pending{gate: gate, cancel: cancel}

	c.mu.Lock()
	if old, ok := c.negotiations[id]; ok {
		// same identity connecting twice, the older handshake loses
		old.cancel()
	}
	c.negotiations[id] = p
	c.connections.Put(id)
	c.mu.Unlock()

	p.task = future.Go(ctx, c.opts.Async, "load "+username, func(ctx context.Context) error {
		return c.load(ctx, log, id, username)
	})
	gate.Enqueue(p.task)
	return gate
}

// load loads the user data of a negotiating player on the async executor.
func (c *Coordinator) load(ctx context.Context, log logr.Logger, id uuid.UUID, username string) (err error) {
	ctx, span := tracer.Start(ctx, "LoadUser", trace.WithAttributes(
		attribute.String("player.name", username),
		attribute.String("player.id", id.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "user data load failed")
		}
		c.loadCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
		span.End()
	}()

	if c.opts.Policy.DebugLogins {
		log.Info("Processing pre-login (async phase)")
	}
	if c.opts.Policy.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Policy.LoadTimeout)
		defer cancel()
	}
	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for load limiter: %w", err)
	}
	_, err, shared := c.loads.Do(id.String(), func() (any, error) {
		return c.opts.Engine.LoadUser(ctx, id, username)
	})
	if err != nil {
		return fmt.Errorf("error loading permission data of %s: %w", username, err)
	}
	if c.opts.Policy.DebugLogins {
		log.Info("Loaded permission data", "shared", shared)
	}
	return nil
}

// PostLogin activates the session of a player that completed its handshake.
//
// Without loaded data the player is either disconnected with a translated
// error or joins with a restricted session, depending on the Policy.
func (c *Coordinator) PostLogin(player host.Player) (*Session, error) {
	id := player.ID()
	log := c.log.WithValues("name", player.Username(), "id", id)

	c.mu.Lock()
	if _, ok := c.sessions[id]; ok {
		c.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	p := c.negotiations[id]
	delete(c.negotiations, id)
	processed := c.connections.Has(id)
	c.mu.Unlock()

	var loadErr error
	if p != nil {
		loadErr = p.task.Err()
		p.cancel()
	}

	s := newSession(c, player)
	user, ok := c.opts.Engine.User(id)
	if !ok {
		key := i18n.KeyStateError
		switch {
		case loadErr != nil:
			key = i18n.KeyDatabaseError
			log.Info("Permission data could not be loaded", "error", loadErr)
		case !processed:
			log.Info("Player was not processed in negotiation, no permission data available")
		default:
			log.Info("Player was processed in negotiation but its permission data is not present")
		}
		msg := &component.Translation{Key: key, S: component.Style{Color: color.Red}}

		if c.opts.Policy.CancelFailedLogins {
			player.Disconnect(s.render(msg))
			return nil, ErrDataNotLoaded
		}
		s.restricted.Store(true)
		c.opts.Sync.Execute(func() {
			if s.State() != Active {
				return
			}
			if err := s.SendMessage(msg); err != nil {
				log.V(1).Info("could not deliver restricted warning", "error", err)
			}
			s.restricted.Store(false)
		})
	}
	s.user = user
	s.cache = contextcache.New(s.queryOptions)

	c.mu.Lock()
	if _, dup := c.sessions[id]; dup {
		c.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	c.sessions[id] = s
	s.state.Store(int32(Active))
	c.mu.Unlock()

	c.loops.Add(1)
	go func() {
		defer c.loops.Done()
		s.run()
	}()
	if c.opts.Policy.DebugLogins || !ok {
		log.Info("session activated", "restricted", !ok)
	}
	s.send(activate{})
	return s, nil
}

// Logout tears down the session or negotiation of a player.
// Aborted negotiations are drained before the player's data is released.
func (c *Coordinator) Logout(id uuid.UUID) bool {
	c.mu.Lock()
	p := c.negotiations[id]
	delete(c.negotiations, id)
	s := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()

	if p != nil {
		p.cancel()
		c.loops.Add(1)
		c.opts.Async.Go(func() {
			defer c.loops.Done()
			ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			if err := p.gate.Drain(ctx); err != nil {
				c.log.Error(err, "Timed out draining negotiation", "id", id)
			}
			c.release(id)
		})
	}
	if s != nil {
		s.send(logout{})
	}
	return p != nil || s != nil
}

// release unloads the data of id unless the player connected again.
func (c *Coordinator) release(id uuid.UUID) {
	c.mu.RLock()
	_, negotiating := c.negotiations[id]
	_, active := c.sessions[id]
	c.mu.RUnlock()
	if !negotiating && !active {
		c.opts.Engine.UnloadUser(id)
	}
}

// EnvironmentChanged signals that the environment of player changed
// the context key. Keys the calculator ignores are dropped.
func (c *Coordinator) EnvironmentChanged(player host.Player, key string) {
	if !c.opts.Calculator.Enabled(key) {
		return
	}
	if s, ok := c.Session(player.ID()); ok {
		s.send(contextUpdate{reason: key})
	}
}

// Respawned rebinds the session to the new player object of a respawned
// player, keeping its data and cache.
func (c *Coordinator) Respawned(player host.Player) {
	if s, ok := c.Session(player.ID()); ok {
		s.send(respawn{player: player})
	}
}

// UserRecalculated signals that the rules of a user changed.
func (c *Coordinator) UserRecalculated(id uuid.UUID) {
	if s, ok := c.Session(id); ok {
		s.send(contextUpdate{reason: "user recalculated"})
	}
}

// GroupRecalculated signals that the rules of group changed.
// Only sessions whose user inherits the group are updated.
func (c *Coordinator) GroupRecalculated(group string) int {
	var n int
	for _, s := range c.Sessions() {
		if s.user == nil || !s.user.InheritsGroup(s.cache.QueryOptions(), group) {
			continue
		}
		if s.send(contextUpdate{reason: "group " + group + " recalculated"}) {
			n++
		}
	}
	return n
}

// refresh resends the commands of a session. It runs on the sync context.
func (c *Coordinator) refresh(id uuid.UUID) {
	s, ok := c.Session(id)
	if !ok || s.State() != Active {
		return
	}
	player := s.Player()
	if !player.Online() {
		return
	}
	c.opts.Server.RefreshCommands(player)
	c.refreshCounter.Add(context.Background(), 1)
}

// Session returns the active session of a player.
func (c *Coordinator) Session(id uuid.UUID) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	return s, ok
}

// Sessions returns all active sessions.
func (c *Coordinator) Sessions() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Values(c.sessions)
}

// State returns the lifecycle state of a connection.
func (c *Coordinator) State(id uuid.UUID) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.sessions[id]; ok {
		return Active
	}
	if _, ok := c.negotiations[id]; ok {
		return Negotiating
	}
	return Disconnected
}

// Negotiating returns the number of connections in negotiation.
func (c *Coordinator) Negotiating() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.negotiations)
}
