// Package registry implements engine.Registry with a ternary search trie,
// so that every permission below a prefix can be listed quickly for
// tab completion of permission arguments.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/zyedidia/generic/trie"

	"go.minekube.com/perms/pkg/engine"
)

// Registry is a concurrency safe set of permission strings.
type Registry struct {
	mu sync.RWMutex
	t  *trie.Trie[struct{}]
}

var _ engine.Registry = (*Registry)(nil)

// New returns an empty Registry.
func New() *Registry {
	return &Registry{t: trie.New[struct{}]()}
}

// Insert adds permission in lower case. Empty permissions are ignored.
func (r *Registry) Insert(permission string) {
	permission = strings.ToLower(strings.TrimSpace(permission))
	if permission == "" {
		return
	}
	r.mu.Lock()
	r.t.Put(permission, struct{}{})
	r.mu.Unlock()
}

// Contains reports whether permission was inserted.
func (r *Registry) Contains(permission string) bool {
	permission = strings.ToLower(permission)
	if permission == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t.Contains(permission)
}

// WithPrefix returns the sorted permissions starting with prefix.
// An empty prefix returns all permissions.
func (r *Registry) WithPrefix(prefix string) []string {
	prefix = strings.ToLower(prefix)
	r.mu.RLock()
	var keys []string
	if prefix == "" {
		keys = r.t.Keys()
	} else {
		keys = r.t.KeysWithPrefix(prefix)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of permissions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t.Size()
}
