package command

import (
	"go.minekube.com/brigodier"

	"go.minekube.com/perms/pkg/inject"
)

// InjectPermissions guards every registered command node with a
// permission requirement of inj and returns the number of nodes newly
// guarded. Nodes guarded by an earlier call are kept, so it can be called
// again after registering more commands.
//
// Guarded nodes are rebuilt and replace the originals below the root.
// Redirects keep pointing to the node they were built with.
// InjectPermissions must not be called concurrently with dispatching.
func (m *Manager) InjectPermissions(inj *inject.Injector) int {
	if m.injected == nil {
		m.injected = map[brigodier.CommandNode]*inject.Requirement{}
	}
	root := &node{m: m, src: &m.Root}
	root.children = m.shadow(&m.Root)

	n := inj.Inject(root)
	if n == 0 {
		return 0
	}
	for _, c := range root.children {
		built, changed := c.commit()
		if !changed {
			continue
		}
		m.Root.RemoveChild(c.src.Name())
		m.Root.AddChild(built)
	}
	return n
}

// Injected reports whether node is guarded by an injected requirement.
func (m *Manager) Injected(node brigodier.CommandNode) (*inject.Requirement, bool) {
	r, ok := m.injected[node]
	return r, ok
}

// shadow mirrors the children of src so that guards can be
// collected before rebuilding the brigodier nodes.
func (m *Manager) shadow(src brigodier.CommandNode) []*node {
	var children []*node
	src.ChildrenOrdered().Range(func(_ string, c brigodier.CommandNode) bool {
		children = append(children, &node{m: m, src: c, children: m.shadow(c)})
		return true
	})
	return children
}

// node adapts a brigodier.CommandNode to inject.Node.
type node struct {
	m        *Manager
	src      brigodier.CommandNode
	guard    inject.Guard // set by the injector
	changed  bool
	children []*node
}

var _ inject.Node = (*node)(nil)

func (n *node) Name() string { return n.src.Name() }

func (n *node) Literal() bool {
	_, ok := n.src.(*brigodier.LiteralCommandNode)
	return ok
}

func (n *node) Children() []inject.Node {
	c := make([]inject.Node, len(n.children))
	for i, child := range n.children {
		c[i] = child
	}
	return c
}

func (n *node) Guard() inject.Guard {
	if n.guard != nil {
		return n.guard
	}
	if r, ok := n.m.injected[n.src]; ok {
		return r
	}
	return inject.GuardFunc(n.src.CanUse)
}

func (n *node) SetGuard(g inject.Guard) {
	n.guard = g
	n.changed = true
}

// commit rebuilds the node if it or a descendant got a new guard.
func (n *node) commit() (brigodier.CommandNode, bool) {
	built := make([]brigodier.CommandNode, len(n.children))
	var childChanged bool
	for i, c := range n.children {
		var changed bool
		built[i], changed = c.commit()
		childChanged = childChanged || changed
	}
	if !n.changed && !childChanged {
		return n.src, false
	}

	b := n.src.CreateBuilder()
	if n.changed {
		b.Requires(n.guard.Allow)
	}
	out := b.Build()
	for _, c := range built {
		out.AddChild(c)
	}

	if r, ok := n.guard.(*inject.Requirement); ok && n.changed {
		n.m.injected[out] = r
	} else if r, ok := n.m.injected[n.src]; ok {
		n.m.injected[out] = r
	}
	delete(n.m.injected, n.src)
	return out, true
}
