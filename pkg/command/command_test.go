package command

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/pkg/inject"
	"go.minekube.com/perms/pkg/util/permission"
)

type mockCommandSource struct {
	perms    map[string]permission.TriState
	level    int
	messages []component.Component
}

var (
	_ Source  = (*mockCommandSource)(nil)
	_ Leveled = (*mockCommandSource)(nil)
)

func (m *mockCommandSource) HasPermission(p string) bool { return m.PermissionValue(p).Bool() }
func (m *mockCommandSource) PermissionValue(p string) permission.TriState {
	return m.perms[p]
}
func (m *mockCommandSource) AccessLevel() int { return m.level }
func (m *mockCommandSource) SendMessage(msg component.Component) error {
	m.messages = append(m.messages, msg)
	return nil
}

// newManager registers:
//
//	group create <name>   (operators only)
//	list
func newManager(ran *[]string) *Manager {
	mgr := new(Manager)
	mgr.Register(brigodier.Literal("group").
		Then(brigodier.Literal("create").
			Requires(RequiresLevel(permission.MaxLevel)).
			Then(brigodier.Argument("name", brigodier.String).
				Executes(Command(func(c *Context) error {
					*ran = append(*ran, "create "+c.String("name"))
					return nil
				})))))
	mgr.Register(brigodier.Literal("list").
		Executes(Command(func(c *Context) error {
			*ran = append(*ran, "list")
			return c.SendMessage(&component.Text{Content: "groups"})
		})))
	return mgr
}

func newInjector(reg inject.Registry) *inject.Injector {
	return inject.New(inject.Options{Check: CheckSource, Registry: reg, Logger: logr.Discard()})
}

type sliceRegistry []string

func (r *sliceRegistry) Insert(p string) { *r = append(*r, p) }

func TestManager_Do(t *testing.T) {
	var ran []string
	mgr := newManager(&ran)
	src := &mockCommandSource{}

	require.NoError(t, mgr.Do(context.Background(), src, "list"))
	require.Equal(t, []string{"list"}, ran)
	require.Len(t, src.messages, 1)

	require.Error(t, mgr.Do(context.Background(), src, "group create admin"),
		"level 0 must not pass the operator requirement")

	op := &mockCommandSource{level: permission.MaxLevel}
	require.NoError(t, mgr.Do(context.Background(), op, "group create admin"))
	require.Equal(t, []string{"list", "create admin"}, ran)

	require.True(t, mgr.Has("GROUP"))
	require.False(t, mgr.Has("missing"))
	require.Equal(t, []string{"group", "list"}, mgr.Names())
}

func TestManager_InjectPermissions(t *testing.T) {
	var ran []string
	mgr := newManager(&ran)
	var reg sliceRegistry
	n := mgr.InjectPermissions(newInjector(&reg))
	require.Equal(t, 4, n) // group, create, <name>, list
	require.ElementsMatch(t, []string{
		"command.group", "command.group.create", "command.group.create", "command.list",
	}, []string(reg))

	group := mgr.Root.Children()["group"]
	r, ok := mgr.Injected(group)
	require.True(t, ok)
	require.Equal(t, "command.group", r.Permission())

	t.Run("allow elevates past operator requirement", func(t *testing.T) {
		src := &mockCommandSource{perms: map[string]permission.TriState{
			"command.group":        permission.True,
			"command.group.create": permission.True,
		}}
		require.NoError(t, mgr.Do(context.Background(), src, "group create mods"))
		require.Contains(t, ran, "create mods")
	})
	t.Run("deny", func(t *testing.T) {
		op := &mockCommandSource{level: permission.MaxLevel, perms: map[string]permission.TriState{
			"command.list": permission.False,
		}}
		ran = nil
		require.Error(t, mgr.Do(context.Background(), op, "list"))
		require.Empty(t, ran)
	})
	t.Run("undefined falls through", func(t *testing.T) {
		ran = nil
		require.NoError(t, mgr.Do(context.Background(), &mockCommandSource{}, "list"))
		require.Error(t, mgr.Do(context.Background(), &mockCommandSource{}, "group create x"))
		require.NoError(t, mgr.Do(context.Background(),
			&mockCommandSource{level: permission.MaxLevel}, "group create x"))
		require.Equal(t, []string{"list", "create x"}, ran)
	})
}

func TestManager_InjectPermissionsIdempotent(t *testing.T) {
	var ran []string
	mgr := newManager(&ran)
	inj := newInjector(nil)
	require.Equal(t, 4, mgr.InjectPermissions(inj))

	group := mgr.Root.Children()["group"]
	list := mgr.Root.Children()["list"]
	require.Zero(t, mgr.InjectPermissions(inj))
	require.Same(t, group, mgr.Root.Children()["group"])
	require.Same(t, list, mgr.Root.Children()["list"])

	// commands registered later are picked up, earlier ones kept
	mgr.Register(brigodier.Literal("reload").Executes(Command(func(*Context) error { return nil })))
	require.Equal(t, 1, mgr.InjectPermissions(inj))
	require.Same(t, group, mgr.Root.Children()["group"])
	r, ok := mgr.Injected(mgr.Root.Children()["reload"])
	require.True(t, ok)
	require.Equal(t, "command.reload", r.Permission())
}

func TestCheckSource(t *testing.T) {
	require.Equal(t, permission.Undefined, CheckSource(context.Background(), "x"))
	src := &mockCommandSource{perms: map[string]permission.TriState{"x": permission.False}}
	ctx := ContextWithSource(context.Background(), src)
	require.Equal(t, permission.False, CheckSource(ctx, "x"))
	require.Same(t, src, SourceFromContext(ctx))
}

func TestCommandExecuteEvent(t *testing.T) {
	e := NewCommandExecuteEvent(&mockCommandSource{}, "op Notch")
	require.True(t, e.Allowed())
	e.SetCommand("deop Notch")
	require.Equal(t, "op Notch", e.OriginalCommand())
	require.Equal(t, "deop Notch", e.Command())
	e.SetAllowed(false)
	require.False(t, e.Allowed())
}
