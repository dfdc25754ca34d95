package session

import "go.minekube.com/perms/pkg/host"

// message is handled by the loop of a session.
type message interface {
	// handle applies the message and reports whether the loop must stop.
	handle(s *Session) (stop bool)
}

type (
	// activate is the first message of a session.
	activate struct{}
	// contextUpdate is sent for environment changes and recalculated data.
	contextUpdate struct{ reason string }
	// respawn rebinds the session to a new player object.
	respawn struct{ player host.Player }
	logout  struct{}
)

func (activate) handle(s *Session) bool {
	s.autoOp()
	return false
}

func (m contextUpdate) handle(s *Session) bool {
	s.log.V(1).Info("context update", "reason", m.reason)
	s.update()
	return false
}

func (m respawn) handle(s *Session) bool {
	s.mu.Lock()
	s.player = m.player
	s.mu.Unlock()
	s.update()
	return false
}

func (logout) handle(s *Session) bool {
	s.teardown()
	return true
}
