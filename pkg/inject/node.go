package inject

import "context"

// Guard decides whether the command source in ctx may use a node.
type Guard interface {
	Allow(ctx context.Context) bool
}

// GuardFunc adapts a func to a Guard.
type GuardFunc func(ctx context.Context) bool

// Allow implements Guard.
func (f GuardFunc) Allow(ctx context.Context) bool { return f(ctx) }

// Node is a node of a command-dispatch graph as seen by the Injector.
// Adapters expose the exact point where a guard is replaced.
type Node interface {
	// Name is the literal or argument name.
	Name() string
	// Literal reports whether the node is a literal, not an argument.
	Literal() bool
	// Children returns the child nodes in a stable order.
	Children() []Node
	// Guard returns the current guard or nil if the node is unguarded.
	Guard() Guard
	// SetGuard replaces the guard.
	SetGuard(Guard)
}

// allow evaluates g where a nil Guard allows everything.
func allow(g Guard, ctx context.Context) bool {
	return g == nil || g.Allow(ctx)
}
