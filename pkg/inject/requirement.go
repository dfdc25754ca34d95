package inject

import (
	"context"

	"go.minekube.com/perms/pkg/util/permission"
)

// CheckFunc looks up the permission of the command source in ctx.
type CheckFunc func(ctx context.Context, permission string) permission.TriState

// Requirement is the Guard installed by the Injector.
// It wraps the guard the node had before.
type Requirement struct {
	permission string
	check      CheckFunc
	delegate   Guard
}

var _ Guard = (*Requirement)(nil)

// Permission returns the permission checked by the requirement.
func (r *Requirement) Permission() string { return r.permission }

// Delegate returns the wrapped guard, nil if the node was unguarded.
func (r *Requirement) Delegate() Guard { return r.delegate }

// Allow checks the permission. An explicit allow evaluates the wrapped
// guard at the highest access level so level based checks pass, a deny
// refuses and an undefined result falls through to the wrapped guard.
func (r *Requirement) Allow(ctx context.Context) bool {
	switch r.check(ctx, r.permission) {
	case permission.True:
		return allow(r.delegate, permission.WithLevel(ctx, permission.MaxLevel))
	case permission.False:
		return false
	default:
		return allow(r.delegate, ctx)
	}
}
