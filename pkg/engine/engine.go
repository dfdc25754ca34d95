// Package engine is the boundary to the permission engine resolving
// rules into results. perms only caches, invalidates and surfaces those
// results per session; how rules are stored and resolved lives behind
// the interfaces of this package.
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

// ErrUserNotFound is returned by engines that refuse unknown users.
var ErrUserNotFound = errors.New("user not found")

// Engine loads users and owns the global permission registry.
type Engine interface {
	// LoadUser loads the permission data of a user. It may block on
	// storage and is called on the async pool.
	LoadUser(ctx context.Context, id uuid.UUID, username string) (User, error)
	// User returns an already loaded user.
	User(id uuid.UUID) (User, bool)
	// UnloadUser drops the data of a user that logged out.
	UnloadUser(id uuid.UUID)
	// Registry records every known permission.
	Registry() Registry
}

// User is the loaded permission data of one user.
type User interface {
	ID() uuid.UUID
	Username() string
	// CheckPermission resolves perm under the given QueryOptions.
	CheckPermission(opts *query.QueryOptions, perm string) permission.TriState
	// InheritsGroup reports whether the user inherits group,
	// directly or transitively, under the given QueryOptions.
	InheritsGroup(opts *query.QueryOptions, group string) bool
}

// Registry is a global set of known permission strings,
// used for documentation and tab completion.
type Registry interface {
	Insert(permission string)
	Contains(permission string) bool
	// WithPrefix returns all known permissions starting with prefix, sorted.
	WithPrefix(prefix string) []string
	Len() int
}
