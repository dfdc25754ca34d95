package perms

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/engine/memory"
	"go.minekube.com/perms/pkg/host/sim"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

const (
	playerArg     = "player"
	permissionArg = "permission"
	valueArg      = "value"
	defaultLocale = "en_us"
)

func (con *Console) registerCommands() {
	srv := con.p.server
	players := command.SuggestSimilar(func(*command.Context) []string {
		names := make([]string, 0)
		for _, p := range srv.Players() {
			names = append(names, p.Username())
		}
		sort.Strings(names)
		return names
	})
	// withPlayer resolves the player argument or tells the source it is offline.
	withPlayer := func(fn func(c *command.Context, p *sim.Player) error) brigodier.Command {
		return command.Command(func(c *command.Context) error {
			name := c.String(playerArg)
			p, ok := srv.PlayerByName(name)
			if !ok {
				return c.SendMessage(failure("Player %s is not online", name))
			}
			return fn(c, p)
		})
	}

	join := func(c *command.Context, locale string) error {
		name := c.String("name")
		if _, ok := srv.PlayerByName(name); ok {
			return c.SendMessage(failure("Player %s is already online", name))
		}
		srv.Connect(uuid.Nil, name, locale)
		return c.SendMessage(success("%s is connecting", name))
	}
	con.commands.Register(brigodier.Literal("join").
		Then(brigodier.Argument("name", brigodier.String).
			Executes(command.Command(func(c *command.Context) error {
				return join(c, defaultLocale)
			})).
			Then(brigodier.Argument("locale", brigodier.String).
				Executes(command.Command(func(c *command.Context) error {
					return join(c, c.String("locale"))
				})),
			),
		),
	)

	con.commands.Register(brigodier.Literal("quit").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
				p.Disconnect(&component.Text{Content: "Disconnected by console"})
				return c.SendMessage(success("%s left", p.Username()))
			})),
		),
	)

	con.commands.Register(brigodier.Literal("world").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Then(brigodier.Argument("world", brigodier.String).
				Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
					world := strings.ToLower(c.String("world"))
					srv.SetWorld(p, world, sim.DimensionOf(world))
					return c.SendMessage(success("Moved %s to world %s", p.Username(), world))
				})),
			),
		),
	)

	con.commands.Register(brigodier.Literal("gamemode").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Then(brigodier.Argument("mode", brigodier.String).
				Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
					mode := strings.ToLower(c.String("mode"))
					srv.SetGameMode(p, query.GameMode(mode))
					return c.SendMessage(success("Set game mode of %s to %s", p.Username(), mode))
				})),
			),
		),
	)

	con.commands.Register(brigodier.Literal("locale").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Then(brigodier.Argument("locale", brigodier.String).
				Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
					p.SetLocale(c.String("locale"))
					return c.SendMessage(success("Set locale of %s to %s", p.Username(), c.String("locale")))
				})),
			),
		),
	)

	con.commands.Register(brigodier.Literal("respawn").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
				srv.Respawn(p)
				return c.SendMessage(success("%s respawned", p.Username()))
			})),
		),
	)

	con.commands.Register(brigodier.Literal("run").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Then(brigodier.Argument("command", brigodier.StringPhrase).
				Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
					return con.run(p, c.String("command"))
				})),
			),
		),
	)

	con.commands.Register(brigodier.Literal("check").
		Then(brigodier.Argument(playerArg, brigodier.String).
			Suggests(players).
			Then(brigodier.Argument(permissionArg, brigodier.String).
				Executes(withPlayer(func(c *command.Context, p *sim.Player) error {
					perm := strings.ToLower(c.String(permissionArg))
					s, ok := con.p.sessions.Session(p.ID())
					if !ok {
						return c.SendMessage(failure("%s has no session", p.Username()))
					}
					v := s.PermissionValue(perm)
					return c.SendMessage(&component.Text{
						Content: fmt.Sprintf("%s %s = ", p.Username(), perm),
						Extra: []component.Component{
							&component.Text{Content: v.String(), S: component.Style{Color: triStateColor(v)}},
							&component.Text{
								Content: " in " + s.QueryOptions().String(),
								S:       component.Style{Color: color.Gray},
							},
						},
					})
				})),
			),
		),
	)

	setRule := func(set func(key string, rule memory.Rule)) brigodier.Command {
		return command.Command(func(c *command.Context) error {
			key := c.String("name")
			perm := c.String(permissionArg)
			v, err := strconv.ParseBool(c.String(valueArg))
			if err != nil {
				return c.SendMessage(failure("Invalid value %q, must be true or false", c.String(valueArg)))
			}
			set(key, memory.Rule{Permission: perm, Value: &v})
			return c.SendMessage(success("Set %s to %t for %s", perm, v, key))
		})
	}
	ruleNode := func(kind string, set func(key string, rule memory.Rule)) brigodier.LiteralNodeBuilder {
		return brigodier.Literal(kind).
			Then(brigodier.Argument("name", brigodier.String).
				Then(brigodier.Literal("set").
					Then(brigodier.Argument(permissionArg, brigodier.String).
						Then(brigodier.Argument(valueArg, brigodier.String).
							Executes(setRule(set)),
						),
					),
				),
			)
	}
	con.commands.Register(ruleNode("user", con.p.engine.SetUserPermission))
	con.commands.Register(ruleNode("group", con.p.engine.SetGroupPermission))

	con.commands.Register(brigodier.Literal("reload").
		Executes(command.Command(func(c *command.Context) error {
			if err := con.p.ReloadRules(); err != nil {
				return c.SendMessage(failure("Failed to reload rules: %v", err))
			}
			return c.SendMessage(success("Reloaded rules"))
		})),
	)

	con.commands.Register(brigodier.Literal("sessions").
		Executes(command.Command(func(c *command.Context) error {
			sessions := con.p.sessions.Sessions()
			sort.Slice(sessions, func(i, j int) bool {
				return sessions[i].Username() < sessions[j].Username()
			})
			msg := &component.Text{Content: fmt.Sprintf("%d sessions, %d negotiating",
				len(sessions), con.p.sessions.Negotiating())}
			for _, s := range sessions {
				line := fmt.Sprintf("\n- %s (%s) %s", s.Username(), s.State(), s.QueryOptions())
				if s.Restricted() {
					line += " restricted"
				}
				msg.Extra = append(msg.Extra, &component.Text{Content: line})
			}
			return c.SendMessage(msg)
		})),
	)

	listPermissions := func(c *command.Context, prefix string) error {
		perms := con.p.registry.WithPrefix(strings.ToLower(prefix))
		return c.SendMessage(&component.Text{
			Content: fmt.Sprintf("%d known permissions", len(perms)),
			Extra:   []component.Component{&component.Text{Content: "\n" + strings.Join(perms, "\n")}},
		})
	}
	con.commands.Register(brigodier.Literal("permissions").
		Executes(command.Command(func(c *command.Context) error {
			return listPermissions(c, "")
		})).
		Then(brigodier.Argument("prefix", brigodier.String).
			Executes(command.Command(func(c *command.Context) error {
				return listPermissions(c, c.String("prefix"))
			})),
		),
	)

	con.commands.Register(brigodier.Literal("broadcast").
		Then(brigodier.Argument("message", brigodier.StringPhrase).
			Executes(command.Command(func(c *command.Context) error {
				con.p.Broadcast(&component.Text{Content: c.String("message")})
				return nil
			})),
		),
	)

	con.commands.Register(brigodier.Literal("stop").
		Executes(command.Command(func(c *command.Context) error {
			con.p.Shutdown()
			return c.SendMessage(success("Stopping"))
		})),
	)
}

// run executes a game command as p and hints at similar
// commands if it does not exist.
func (c *Console) run(p *sim.Player, commandline string) error {
	srv := c.p.server
	hasRun, err := srv.ExecuteCommand(context.Background(), p, commandline)
	if err != nil || hasRun {
		return err
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(commandline, "/"), " ")
	return c.unknown(c.p.source(p), name, srv.Commands().Names())
}

func triStateColor(v permission.TriState) color.Color {
	switch v {
	case permission.True:
		return color.Green
	case permission.False:
		return color.Red
	}
	return color.Gray
}

func success(format string, args ...any) component.Component {
	return &component.Text{Content: fmt.Sprintf(format, args...), S: component.Style{Color: color.Green}}
}

func failure(format string, args ...any) component.Component {
	return &component.Text{Content: fmt.Sprintf(format, args...), S: component.Style{Color: color.Red}}
}
