package sim

import (
	"sync"

	"github.com/google/uuid"
	"go.minekube.com/common/minecraft/component"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

// Player is a simulated player.
type Player struct {
	id       uuid.UUID
	username string
	s        *Server

	online atomic.Bool
	gone   atomic.Bool // replaced by a respawned player object

	mu       sync.RWMutex // protects following fields
	env      query.Environment
	locale   string
	messages []component.Component
	reason   component.Component // disconnect reason
}

var (
	_ host.Player     = (*Player)(nil)
	_ host.Operator   = (*Player)(nil)
	_ command.Source  = (*Player)(nil)
	_ command.Leveled = (*Player)(nil)
)

func (p *Player) ID() uuid.UUID    { return p.id }
func (p *Player) Username() string { return p.username }
func (p *Player) Online() bool     { return p.online.Load() }

func (p *Player) Environment() (query.Environment, bool) {
	if !p.Online() || p.gone.Load() {
		return query.Environment{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.env, true
}

func (p *Player) Locale() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.locale
}

// SetLocale changes the locale reported by the client.
func (p *Player) SetLocale(locale string) {
	p.mu.Lock()
	p.locale = locale
	p.mu.Unlock()
}

func (p *Player) SendMessage(msg component.Component) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	p.s.opts.OnMessage(p, msg)
	return nil
}

// Messages returns all messages sent to the player.
func (p *Player) Messages() []component.Component {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]component.Component(nil), p.messages...)
}

func (p *Player) Disconnect(reason component.Component) {
	p.mu.Lock()
	p.reason = reason
	p.mu.Unlock()
	p.s.Quit(p.id)
}

// DisconnectReason returns the reason the player was disconnected with.
func (p *Player) DisconnectReason() component.Component {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reason
}

func (p *Player) IsOperator() bool { return p.s.IsOperator(p.id) }

// AccessLevel is the highest level for operators and 0 otherwise.
func (p *Player) AccessLevel() int {
	if p.IsOperator() {
		return permission.MaxLevel
	}
	return 0
}

// HasPermission and PermissionValue answer for players
// without a session in front of them.
func (p *Player) HasPermission(string) bool { return false }

func (p *Player) PermissionValue(string) permission.TriState { return permission.Undefined }
