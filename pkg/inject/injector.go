// Package inject decorates every node of a command-dispatch graph with a
// permission requirement derived from the node's literal path, e.g. the
// node "create" below "group" requires "command.group.create".
//
// Injection is idempotent: nodes already guarded by a Requirement are
// left alone, so a rebuilt graph can be injected again safely.
package inject

import (
	"strings"

	"github.com/go-logr/logr"
)

// DefaultNamespace prefixes every injected permission.
const DefaultNamespace = "command"

// Registry records every permission discovered while injecting.
type Registry interface {
	Insert(permission string)
}

// Options are the options for an Injector.
type Options struct {
	// Namespace prefixing every permission, defaults to DefaultNamespace.
	Namespace string
	// Check looks up permissions at dispatch time. Required.
	Check CheckFunc
	// Registry is optional.
	Registry Registry
	Logger   logr.Logger
}

// Injector injects permission requirements into command graphs.
type Injector struct {
	log       logr.Logger
	namespace string
	check     CheckFunc
	registry  Registry
}

// New returns a new Injector.
func New(opts Options) *Injector {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	return &Injector{
		log:       opts.Logger.WithName("inject"),
		namespace: strings.ToLower(opts.Namespace),
		check:     opts.Check,
		registry:  opts.Registry,
	}
}

// Inject walks the graph below root depth-first in pre-order and guards
// every node having at least one literal on its path. The root itself
// never gets a permission. It returns the number of nodes newly guarded.
func (i *Injector) Inject(root Node) (injected int) {
	var walk func(n Node, path []string)
	walk = func(n Node, path []string) {
		if n.Literal() {
			path = append(path, strings.ToLower(n.Name()))
		}
		if len(path) != 0 && i.decorate(n, i.permission(path)) {
			injected++
		}
		for _, c := range n.Children() {
			// copy so siblings do not share a backing array
			walk(c, append(make([]string, 0, len(path)+1), path...))
		}
	}
	for _, c := range root.Children() {
		walk(c, nil)
	}
	i.log.V(1).Info("injected command permissions", "nodes", injected)
	return injected
}

// Permission returns the permission for a literal path.
func (i *Injector) Permission(path ...string) string {
	lower := make([]string, len(path))
	for j, p := range path {
		lower[j] = strings.ToLower(p)
	}
	return i.permission(lower)
}

func (i *Injector) permission(path []string) string {
	return i.namespace + "." + strings.Join(path, ".")
}

func (i *Injector) decorate(n Node, perm string) bool {
	if i.registry != nil {
		i.registry.Insert(perm)
	}
	existing := n.Guard()
	if _, ok := existing.(*Requirement); ok {
		return false
	}
	n.SetGuard(&Requirement{
		permission: perm,
		check:      i.check,
		delegate:   existing,
	})
	return true
}
