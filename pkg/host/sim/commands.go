package sim

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/query"
)

type playerCtxKey struct{}

// playerFrom returns the player executing a command.
func playerFrom(ctx context.Context) (*Player, bool) {
	p, ok := ctx.Value(playerCtxKey{}).(*Player)
	return p, ok
}

// gameModes are the modes accepted by the gamemode command.
var gameModes = []string{"adventure", "creative", "spectator", "survival"}

// registerCommands registers the vanilla-like commands of the simulated game.
func (s *Server) registerCommands() {
	s.commands.Register(brigodier.Literal("list").
		Executes(command.Command(func(c *command.Context) error {
			names := make([]string, 0)
			for _, p := range s.Players() {
				names = append(names, p.Username())
			}
			sort.Strings(names)
			return c.SendMessage(&component.Text{
				Content: fmt.Sprintf("There are %d players online: %s", len(names), strings.Join(names, ", ")),
			})
		})),
	)

	s.commands.Register(brigodier.Literal("gamemode").
		Requires(command.RequiresLevel(2)).
		Then(brigodier.Argument("mode", brigodier.String).
			Suggests(command.SuggestSimilar(func(*command.Context) []string { return gameModes })).
			Executes(command.Command(func(c *command.Context) error {
				p, ok := playerFrom(c)
				if !ok {
					return c.SendMessage(onlyPlayers)
				}
				mode := strings.ToLower(c.String("mode"))
				if i := sort.SearchStrings(gameModes, mode); i == len(gameModes) || gameModes[i] != mode {
					return c.SendMessage(&component.Text{
						Content: fmt.Sprintf("Unknown game mode: %s", mode),
						S:       component.Style{Color: color.Red},
					})
				}
				s.SetGameMode(p, query.GameMode(mode))
				return c.SendMessage(&component.Text{Content: "Set own game mode to " + mode})
			}))),
	)

	s.commands.Register(brigodier.Literal("world").
		Requires(command.RequiresLevel(2)).
		Then(brigodier.Argument("name", brigodier.String).
			Executes(command.Command(func(c *command.Context) error {
				p, ok := playerFrom(c)
				if !ok {
					return c.SendMessage(onlyPlayers)
				}
				world := c.String("name")
				s.SetWorld(p, world, DimensionOf(world))
				return c.SendMessage(&component.Text{Content: "Teleported to " + world})
			}))),
	)

	s.commands.Register(brigodier.Literal("kick").
		Requires(command.RequiresLevel(3)).
		Then(brigodier.Argument("player", brigodier.String).
			Suggests(command.SuggestSimilar(s.playerNames)).
			Executes(command.Command(func(c *command.Context) error {
				target, ok := s.PlayerByName(c.String("player"))
				if !ok {
					return c.SendMessage(noSuchPlayer)
				}
				target.Disconnect(&component.Text{Content: "Kicked by an operator"})
				return c.SendMessage(&component.Text{Content: "Kicked " + target.Username()})
			}))),
	)

	for _, op := range []bool{true, false} {
		op := op
		name := "op"
		if !op {
			name = "deop"
		}
		s.commands.Register(brigodier.Literal(name).
			Requires(command.RequiresLevel(3)).
			Then(brigodier.Argument("player", brigodier.String).
				Suggests(command.SuggestSimilar(s.playerNames)).
				Executes(command.Command(func(c *command.Context) error {
					target, ok := s.PlayerByName(c.String("player"))
					if !ok {
						return c.SendMessage(noSuchPlayer)
					}
					s.SetOperator(target, op)
					verb := "Made %s a server operator"
					if !op {
						verb = "Made %s no longer a server operator"
					}
					return c.SendMessage(&component.Text{Content: fmt.Sprintf(verb, target.Username())})
				}))),
		)
	}
}

func (s *Server) playerNames(*command.Context) []string {
	var names []string
	for _, p := range s.Players() {
		names = append(names, p.Username())
	}
	return names
}

var (
	onlyPlayers = &component.Text{
		Content: "Only players can run this command.",
		S:       component.Style{Color: color.Red},
	}
	noSuchPlayer = &component.Text{
		Content: "No player was found",
		S:       component.Style{Color: color.Red},
	}
)

// DimensionOf derives the dimension type from vanilla world names.
func DimensionOf(world string) string {
	switch {
	case strings.HasSuffix(world, "_nether"):
		return "the_nether"
	case strings.HasSuffix(world, "_the_end"):
		return "the_end"
	}
	return "overworld"
}
