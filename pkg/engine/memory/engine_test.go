package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/require"

	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

var jeb = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

func newEngine(t *testing.T, mgr event.Manager) *Engine {
	t.Helper()
	e := New(Options{Event: mgr, Logger: logr.Discard()})
	require.NoError(t, e.LoadFile("testdata/rules.yml"))
	return e
}

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
groups:
  Default:
    permissions: [a.b, -a.c, {permission: A.D, value: false}]
`))
	require.NoError(t, err)
	require.Equal(t, DefaultGroup, doc.DefaultGroup)
	g := doc.Groups["default"]
	require.NotNil(t, g)
	require.Len(t, g.Permissions, 3)
	require.True(t, g.Permissions[0].Allowed())
	require.Equal(t, "a.c", g.Permissions[1].Permission)
	require.False(t, g.Permissions[1].Allowed())
	require.Equal(t, "a.d", g.Permissions[2].Permission)
	require.False(t, g.Permissions[2].Allowed())

	_, err = Decode(strings.NewReader("groups: {x: {permissions: [{value: true}]}}"))
	require.Error(t, err)

	doc, err = Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, doc.Groups)
}

func TestSpecificity(t *testing.T) {
	require.Zero(t, specificity("a.b", "a.c"))
	require.Zero(t, specificity("a.b.*", "a.b"))
	require.Greater(t, specificity("a.b", "a.b"), specificity("a.*", "a.b"))
	require.Greater(t, specificity("a.b.*", "a.b.c"), specificity("a.*", "a.b.c"))
	require.Greater(t, specificity("a.*", "a.b"), specificity("*", "a.b"))
}

func TestUser_CheckPermission(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	notch, err := e.LoadUser(ctx, uuid.New(), "Notch")
	require.NoError(t, err)
	jebUser, err := e.LoadUser(ctx, jeb, "jeb_")
	require.NoError(t, err)
	guest, err := e.LoadUser(ctx, uuid.New(), "guest")
	require.NoError(t, err)

	lobby := query.New(query.Context{Key: query.WorldKey, Value: "lobby"})
	nether := query.New(
		query.Context{Key: query.WorldKey, Value: "nether"},
		query.Context{Key: query.GameModeKey, Value: "creative"},
	)

	tests := []struct {
		name string
		user engine.User
		opts *query.QueryOptions
		perm string
		want permission.TriState
	}{
		{"default group", guest, query.Empty, "command.list", permission.True},
		{"no rule", guest, query.Empty, "command.group.create", permission.Undefined},
		{"wildcard", jebUser, query.Empty, "command.group.create", permission.True},
		{"exact negation beats wildcard", jebUser, query.Empty, "command.group.delete", permission.False},
		{"own contextual rule", jebUser, nether, "command.group.delete", permission.True},
		{"contextual group", jebUser, nether, "worldedit.wand", permission.True},
		{"contextual group not applying", jebUser, lobby, "worldedit.wand", permission.Undefined},
		{"inherited negation beats star", notch, query.Empty, "command.group.delete", permission.False},
		{"star", notch, query.Empty, "anything.at.all", permission.True},
		{"contextual rule", notch, lobby, "perms.autoop", permission.True},
		{"case insensitive", notch, lobby, "PERMS.AUTOOP", permission.True},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.user.CheckPermission(tt.opts, tt.perm))
		})
	}
}

func TestUser_InheritsGroup(t *testing.T) {
	e := newEngine(t, nil)
	notch, _ := e.LoadUser(context.Background(), uuid.New(), "Notch")
	jebUser, _ := e.LoadUser(context.Background(), jeb, "jeb_")

	require.True(t, notch.InheritsGroup(query.Empty, "mod"))
	require.True(t, notch.InheritsGroup(query.Empty, "DEFAULT"))
	require.False(t, notch.InheritsGroup(query.Empty, "builder"))
	require.False(t, jebUser.InheritsGroup(query.Empty, "builder"))
	require.True(t, jebUser.InheritsGroup(
		query.New(query.Context{Key: query.GameModeKey, Value: "creative"}), "builder"))
}

func TestEngine_Events(t *testing.T) {
	mgr := event.New()
	var users []string
	var groups []string
	event.Subscribe(mgr, 0, func(e *engine.UserDataRecalculateEvent) {
		users = append(users, e.Username())
	})
	event.Subscribe(mgr, 0, func(e *engine.GroupDataRecalculateEvent) {
		groups = append(groups, e.Group())
	})

	e := newEngine(t, mgr)
	u, err := e.LoadUser(context.Background(), uuid.New(), "Notch")
	require.NoError(t, err)

	e.SetGroupPermission("Mod", Rule{Permission: "command.kick"})
	require.ElementsMatch(t, []string{"mod", "admin"}, groups)
	require.Equal(t, permission.True, u.CheckPermission(query.Empty, "command.kick"))

	deny := false
	e.SetUserPermission("notch", Rule{Permission: "command.kick", Value: &deny})
	require.Equal(t, []string{"Notch"}, users)
	require.Equal(t, permission.False, u.CheckPermission(query.Empty, "command.kick"))

	// replacing a rule keeps one entry
	e.SetUserPermission("notch", Rule{Permission: "command.kick"})
	require.Equal(t, permission.True, u.CheckPermission(query.Empty, "command.kick"))

	users = nil
	e.Replace(&Document{})
	require.Equal(t, []string{"Notch"}, users)
	require.Equal(t, permission.Undefined, u.CheckPermission(query.Empty, "command.kick"))
}

func TestEngine_LoadUser(t *testing.T) {
	e := newEngine(t, nil)
	id := uuid.New()
	_, ok := e.User(id)
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.LoadUser(ctx, id, "late")
	require.ErrorIs(t, err, context.Canceled)

	_, err = e.LoadUser(context.Background(), id, "guest")
	require.NoError(t, err)
	_, ok = e.User(id)
	require.True(t, ok)
	e.UnloadUser(id)
	_, ok = e.User(id)
	require.False(t, ok)

	require.True(t, e.Registry().Contains("command.group.delete"))
	require.False(t, e.Registry().Contains("command.group.*"))
	require.Contains(t, e.Groups(), "admin")
}
