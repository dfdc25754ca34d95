package session

import (
	"strings"

	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/i18n"
	"go.minekube.com/perms/pkg/util/permission"
)

// Subscribe binds the coordinator to the host and engine events fired on mgr.
// The returned func unsubscribes all handlers.
func (c *Coordinator) Subscribe(mgr event.Manager) (unsubscribe func()) {
	unsubs := []func(){
		event.Subscribe(mgr, 0, func(e *host.NegotiatingEvent) {
			e.SetGate(c.Negotiate(e.ID(), e.Username()))
		}),
		event.Subscribe(mgr, 0, func(e *host.PostLoginEvent) {
			_, _ = c.PostLogin(e.Player())
		}),
		event.Subscribe(mgr, 0, func(e *host.LogoutEvent) {
			c.Logout(e.ID())
		}),
		event.Subscribe(mgr, 0, func(e *host.EnvironmentChangedEvent) {
			c.EnvironmentChanged(e.Player(), e.Key())
		}),
		event.Subscribe(mgr, 0, func(e *host.RespawnEvent) {
			c.Respawned(e.Player())
		}),
		event.Subscribe(mgr, 0, c.onCommandsBuilt),
		event.Subscribe(mgr, 0, func(e *engine.UserDataRecalculateEvent) {
			c.UserRecalculated(e.ID())
		}),
		event.Subscribe(mgr, 0, func(e *engine.GroupDataRecalculateEvent) {
			n := c.GroupRecalculated(e.Group())
			c.log.V(1).Info("group recalculated", "group", e.Group(), "sessions", n)
		}),
		event.Subscribe(mgr, 0, c.onCommandExecute),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// onCommandsBuilt guards the commands of a (re)built command graph.
func (c *Coordinator) onCommandsBuilt(e *host.CommandsBuiltEvent) {
	if c.opts.Injector == nil {
		return
	}
	n := e.Manager().InjectPermissions(c.opts.Injector)
	c.log.V(1).Info("injected command permissions", "nodes", n)
}

// opCommands are denied if operators are disabled.
var opCommands = map[string]struct{}{"op": {}, "deop": {}}

// onCommandExecute denies commands of restricted sessions
// and the op commands if disabled.
func (c *Coordinator) onCommandExecute(e *command.CommandExecuteEvent) {
	if !e.Allowed() {
		return
	}
	var key string
	if s, ok := e.Source().(*Session); ok && s.Restricted() {
		key = i18n.KeyRestricted
	} else if c.opts.DisableOps {
		name, _, _ := strings.Cut(strings.TrimPrefix(e.Command(), "/"), " ")
		if _, ok := opCommands[strings.ToLower(name)]; ok {
			key = i18n.KeyOpDisabled
		}
	}
	if key == "" {
		return
	}
	e.SetAllowed(false)
	_ = e.Source().SendMessage(&component.Translation{
		Key: key,
		S:   component.Style{Color: color.Red},
	})
}

// Check resolves perm for the active session of a player.
func (c *Coordinator) Check(id uuid.UUID, perm string) (permission.TriState, error) {
	s, ok := c.Session(id)
	if !ok {
		return permission.Undefined, ErrUnknownSession
	}
	return s.PermissionValue(perm), nil
}
