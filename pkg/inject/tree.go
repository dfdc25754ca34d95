package inject

import (
	"context"
	"strings"
)

// Tree is a plain in-memory command graph for hosts
// without a dispatcher of their own.
type Tree struct {
	name     string
	literal  bool
	guard    Guard
	children []*Tree
}

var _ Node = (*Tree)(nil)

// NewTree returns an empty root node.
func NewTree() *Tree { return &Tree{} }

// AddLiteral adds a literal child and returns it.
func (t *Tree) AddLiteral(name string, guard Guard) *Tree {
	return t.add(&Tree{name: name, literal: true, guard: guard})
}

// AddArgument adds an argument child and returns it.
func (t *Tree) AddArgument(name string, guard Guard) *Tree {
	return t.add(&Tree{name: name, guard: guard})
}

func (t *Tree) add(c *Tree) *Tree {
	t.children = append(t.children, c)
	return c
}

// Find returns the descendant reached by following names, or nil.
func (t *Tree) Find(names ...string) *Tree {
	n := t
outer:
	for _, name := range names {
		for _, c := range n.children {
			if strings.EqualFold(c.name, name) {
				n = c
				continue outer
			}
		}
		return nil
	}
	return n
}

// CanUse evaluates the guard of the node.
func (t *Tree) CanUse(ctx context.Context) bool { return allow(t.guard, ctx) }

func (t *Tree) Name() string     { return t.name }
func (t *Tree) Literal() bool    { return t.literal }
func (t *Tree) Guard() Guard     { return t.guard }
func (t *Tree) SetGuard(g Guard) { t.guard = g }

// Children implements Node.
func (t *Tree) Children() []Node {
	nodes := make([]Node, len(t.children))
	for i, c := range t.children {
		nodes[i] = c
	}
	return nodes
}
