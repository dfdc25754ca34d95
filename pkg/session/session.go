package session

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.minekube.com/common/minecraft/component"
	"go.uber.org/atomic"
	"golang.org/x/text/language"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/contextcache"
	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

// mailboxSize bounds the pending messages of a session.
const mailboxSize = 64

// Session is the permission state of a joined player.
//
// Lifecycle and context messages are handled in order by a single
// goroutine per session. Permission checks may be run from any goroutine.
type Session struct {
	c        *Coordinator
	log      logr.Logger
	id       uuid.UUID
	username string

	user  engine.User // nil if joined without data
	cache *contextcache.Cache

	state      atomic.Int32
	restricted atomic.Bool // deny everything until the warning was delivered

	mu        sync.RWMutex // protects following fields
	player    host.Player
	rawLocale string
	locale    *language.Tag

	mailbox chan message
	done    chan struct{} // closed when the loop exited
}

var (
	_ command.Source  = (*Session)(nil)
	_ command.Leveled = (*Session)(nil)
)

func newSession(c *Coordinator, player host.Player) *Session {
	return &Session{
		c:        c,
		log:      c.log.WithValues("name", player.Username(), "id", player.ID()),
		id:       player.ID(),
		username: player.Username(),
		player:   player,
		mailbox:  make(chan message, mailboxSize),
		done:     make(chan struct{}),
	}
}

func (s *Session) ID() uuid.UUID    { return s.id }
func (s *Session) Username() string { return s.username }
func (s *Session) State() State     { return State(s.state.Load()) }

// Restricted reports whether the session was activated without
// data and its warning was not delivered yet.
func (s *Session) Restricted() bool { return s.restricted.Load() }

// User returns the loaded user data or nil.
func (s *Session) User() engine.User { return s.user }

// Player returns the current host player object.
func (s *Session) Player() host.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// QueryOptions returns the current contexts of the session.
func (s *Session) QueryOptions() *query.QueryOptions {
	return s.cache.QueryOptions()
}

// queryOptions computes the contexts from the live player environment.
func (s *Session) queryOptions() (*query.QueryOptions, bool) {
	env, ok := s.Player().Environment()
	if !ok {
		return nil, false
	}
	return s.c.opts.Calculator.Calculate(env), true
}

// PermissionValue resolves perm under the current contexts.
// Restricted sessions are denied everything and
// sessions without data answer Undefined.
func (s *Session) PermissionValue(perm string) permission.TriState {
	if s.restricted.Load() {
		return permission.False
	}
	if s.user == nil {
		return permission.Undefined
	}
	return s.user.CheckPermission(s.cache.QueryOptions(), perm)
}

func (s *Session) HasPermission(perm string) bool {
	return s.PermissionValue(perm).Bool()
}

// AccessLevel returns the access level of the player for
// requirements not guarded by a permission.
func (s *Session) AccessLevel() int {
	switch p := s.Player().(type) {
	case command.Leveled:
		return p.AccessLevel()
	case host.Operator:
		if p.IsOperator() {
			return permission.MaxLevel
		}
	}
	return 0
}

// Locale returns the language messages are shown in.
// It is matched again only if the client changed its locale.
func (s *Session) Locale() language.Tag {
	raw := s.Player().Locale()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locale == nil || raw != s.rawLocale {
		tag := s.c.opts.Translator.Locale(raw)
		s.rawLocale, s.locale = raw, &tag
	}
	return *s.locale
}

// SendMessage sends msg translated to the session's locale.
func (s *Session) SendMessage(msg component.Component) error {
	return s.Player().SendMessage(s.render(msg))
}

func (s *Session) render(msg component.Component) component.Component {
	return s.c.opts.Translator.Render(s.Locale(), msg)
}

// send queues a message for the session loop.
// It returns false if the session is already torn down.
func (s *Session) send(m message) bool {
	select {
	case s.mailbox <- m:
		return true
	case <-s.done:
		return false
	}
}

// run handles messages until the session is logged out.
func (s *Session) run() {
	defer close(s.done)
	for m := range s.mailbox {
		if stop := m.handle(s); stop {
			return
		}
	}
}

// update invalidates the cached contexts and schedules a command refresh.
func (s *Session) update() {
	s.cache.Invalidate()
	s.c.notifier.Request(s.id)
	s.autoOp()
}

// autoOp grants or revokes operator status from AutoOpPermission.
func (s *Session) autoOp() {
	if !s.c.opts.AutoOp || s.user == nil {
		return
	}
	op := s.user.CheckPermission(s.cache.QueryOptions(), AutoOpPermission) == permission.True
	s.c.opts.Sync.Execute(func() {
		if s.State() != Active {
			return
		}
		s.c.opts.Server.SetOperator(s.Player(), op)
	})
}

func (s *Session) teardown() {
	s.state.Store(int32(Disconnected))
	s.cache.Close()
	s.c.notifier.Evict(s.id)
	s.c.release(s.id)
	s.log.V(1).Info("session closed")
}
