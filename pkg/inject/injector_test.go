package inject

import (
	"context"
	"sort"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"go.minekube.com/perms/pkg/util/permission"
)

type setRegistry map[string]struct{}

func (r setRegistry) Insert(p string) { r[p] = struct{}{} }

func (r setRegistry) sorted() []string {
	var s []string
	for p := range r {
		s = append(s, p)
	}
	sort.Strings(s)
	return s
}

type subjectKey struct{}

// checkFromContext answers with the permission map stored in ctx.
func checkFromContext(ctx context.Context, perm string) permission.TriState {
	m, _ := ctx.Value(subjectKey{}).(map[string]permission.TriState)
	return m[perm]
}

func withPerms(perms map[string]permission.TriState) context.Context {
	return context.WithValue(context.Background(), subjectKey{}, perms)
}

var requireOp = GuardFunc(func(ctx context.Context) bool {
	return permission.Level(ctx) >= permission.MaxLevel
})

// buildTree builds:
//
//	group
//	  create <name>
//	  delete <name>
//	<target>
//	  ping
func buildTree() *Tree {
	root := NewTree()
	group := root.AddLiteral("Group", nil)
	group.AddLiteral("create", requireOp).AddArgument("name", nil)
	group.AddLiteral("delete", requireOp).AddArgument("name", nil)
	root.AddArgument("target", nil).AddLiteral("ping", nil)
	return root
}

func newInjector(reg Registry) *Injector {
	return New(Options{Check: checkFromContext, Registry: reg, Logger: logr.Discard()})
}

func TestInjector_Permissions(t *testing.T) {
	reg := setRegistry{}
	root := buildTree()
	n := newInjector(reg).Inject(root)
	require.Equal(t, 6, n)

	perm := func(path ...string) string {
		g := root.Find(path...).Guard()
		if r, ok := g.(*Requirement); ok {
			return r.Permission()
		}
		return ""
	}
	require.Equal(t, "command.group", perm("group"))
	require.Equal(t, "command.group.create", perm("group", "create"))
	require.Equal(t, "command.group.create", perm("group", "create", "name"))
	require.Equal(t, "command.group.delete", perm("group", "delete"))
	require.Empty(t, perm("target"), "argument without literal ancestors")
	require.Equal(t, "command.ping", perm("target", "ping"))
	require.Nil(t, root.Guard(), "root never gets a permission")

	require.Equal(t, []string{
		"command.group",
		"command.group.create",
		"command.group.delete",
		"command.ping",
	}, reg.sorted())
}

func TestInjector_Idempotent(t *testing.T) {
	root := buildTree()
	inj := newInjector(nil)
	require.Equal(t, 6, inj.Inject(root))

	create := root.Find("group", "create")
	first := create.Guard()
	require.Zero(t, inj.Inject(root))
	require.Same(t, first, create.Guard())

	// the wrapped guard is the original, never another requirement
	r := create.Guard().(*Requirement)
	_, nested := r.Delegate().(*Requirement)
	require.False(t, nested)
}

func TestInjector_Namespace(t *testing.T) {
	inj := New(Options{Namespace: "Cmd", Check: checkFromContext})
	require.Equal(t, "cmd.group.create", inj.Permission("Group", "CREATE"))
}

func TestRequirement_Allow(t *testing.T) {
	root := buildTree()
	newInjector(nil).Inject(root)
	create := root.Find("group", "create")
	name := root.Find("group", "create", "name")

	tests := []struct {
		name  string
		perms map[string]permission.TriState
		node  *Tree
		want  bool
	}{
		{"allow elevates level for the wrapped guard", map[string]permission.TriState{
			"command.group.create": permission.True}, create, true},
		{"deny", map[string]permission.TriState{
			"command.group.create": permission.False}, create, false},
		{"undefined falls through to wrapped guard", nil, create, false},
		{"undefined on unguarded node", nil, name, true},
		{"deny on unguarded node", map[string]permission.TriState{
			"command.group.create": permission.False}, name, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.node.CanUse(withPerms(tt.perms)))
		})
	}

	// an operator passes the wrapped guard on undefined
	ctx := permission.WithLevel(withPerms(nil), permission.MaxLevel)
	require.True(t, create.CanUse(ctx))
}
