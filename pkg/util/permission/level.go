package permission

import "context"

// MaxLevel is the highest access level, equal to a server operator.
const MaxLevel = 4

type levelKey struct{}

// WithLevel returns a copy of ctx carrying the access level of the
// command source. Levels are only ever raised, never lowered.
func WithLevel(ctx context.Context, level int) context.Context {
	if Level(ctx) >= level {
		return ctx
	}
	return context.WithValue(ctx, levelKey{}, level)
}

// Level returns the access level carried by ctx, or 0.
func Level(ctx context.Context) int {
	l, _ := ctx.Value(levelKey{}).(int)
	return l
}
