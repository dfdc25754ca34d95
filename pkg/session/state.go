package session

// State is the lifecycle state of a connection.
type State int32

const (
	// Negotiating connections wait for their data to load.
	Negotiating State = iota
	// Active sessions are joined players.
	Active
	// Disconnected sessions are torn down.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Negotiating:
		return "negotiating"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}
