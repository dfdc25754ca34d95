package query

import (
	"strings"
)

// GameMode is a player's game mode as reported by the host.
type GameMode string

// NotSetGameMode is reported by hosts for players without a game mode.
// It never becomes a context.
const NotSetGameMode GameMode = "not_set"

// Environment is a snapshot of the live state of a player that
// contexts are calculated from.
type Environment struct {
	World         string
	GameMode      GameMode
	DimensionType string
	// Custom dimensions or any other host specific contexts.
	Custom map[string]string
}

// Calculator turns an Environment into QueryOptions.
// It is safe for concurrent use.
type Calculator struct {
	disabled map[string]struct{}
	rewrites map[string]string // lower case world -> alias
}

// NewCalculator returns a Calculator ignoring the disabled context keys and
// applying worldRewrites (world name -> alias, followed transitively).
func NewCalculator(disabled []string, worldRewrites map[string]string) *Calculator {
	c := &Calculator{
		disabled: make(map[string]struct{}, len(disabled)),
		rewrites: make(map[string]string, len(worldRewrites)),
	}
	for _, k := range disabled {
		c.disabled[strings.ToLower(k)] = struct{}{}
	}
	for from, to := range worldRewrites {
		c.rewrites[strings.ToLower(from)] = to
	}
	return c
}

// Enabled reports whether contexts for key are calculated.
func (c *Calculator) Enabled(key string) bool {
	_, ok := c.disabled[strings.ToLower(key)]
	return !ok
}

// Calculate returns the QueryOptions for env.
func (c *Calculator) Calculate(env Environment) *QueryOptions {
	var cs []Context
	add := func(k, v string) {
		if c.Enabled(k) {
			cs = append(cs, Context{Key: k, Value: v})
		}
	}

	if env.DimensionType != "" {
		add(DimensionTypeKey, env.DimensionType)
	}
	if c.Enabled(WorldKey) {
		for _, w := range c.rewriteWorld(env.World) {
			cs = append(cs, Context{Key: WorldKey, Value: w})
		}
	}
	if env.GameMode != "" && env.GameMode != NotSetGameMode {
		add(GameModeKey, strings.ToLower(string(env.GameMode)))
	}
	for k, v := range env.Custom {
		add(k, v)
	}
	return New(cs...)
}

// rewriteWorld returns the world name followed by every alias
// it is rewritten to, stopping at the first repetition.
func (c *Calculator) rewriteWorld(world string) []string {
	if world == "" {
		return nil
	}
	seen := map[string]struct{}{strings.ToLower(world): {}}
	names := []string{world}
	next, ok := c.rewrites[strings.ToLower(world)]
	for ok && next != "" {
		k := strings.ToLower(next)
		if _, dup := seen[k]; dup {
			break
		}
		seen[k] = struct{}{}
		names = append(names, next)
		next, ok = c.rewrites[k]
	}
	return names
}
