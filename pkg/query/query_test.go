package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	q := New(
		Context{Key: "World", Value: "nether"},
		Context{Key: "gamemode", Value: "survival"},
		Context{Key: "world", Value: "nether"},
		Context{Key: "", Value: "x"},
		Context{Key: "server", Value: " "},
	)
	require.Equal(t, 2, q.Len())
	require.Equal(t, "{gamemode=survival,world=nether}", q.String())
	require.True(t, q.Has("WORLD", "Nether"))

	v, ok := q.Value(GameModeKey)
	require.True(t, ok)
	require.Equal(t, "survival", v)

	_, ok = q.Value(DimensionTypeKey)
	require.False(t, ok)
}

func TestQueryOptions_Satisfies(t *testing.T) {
	q := New(Context{WorldKey, "nether"}, Context{GameModeKey, "creative"})
	require.True(t, q.Satisfies(nil))
	require.True(t, q.Satisfies(Empty))
	require.True(t, q.Satisfies(New(Context{WorldKey, "nether"})))
	require.False(t, q.Satisfies(New(Context{WorldKey, "end"})))
}

func TestQueryOptions_Equal(t *testing.T) {
	a := New(Context{WorldKey, "a"}, Context{GameModeKey, "b"})
	b := New(Context{GameModeKey, "b"}, Context{WorldKey, "a"})
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(Empty))
	require.True(t, Empty.Equal(New()))
}

func TestCalculator(t *testing.T) {
	t.Run("all contexts", func(t *testing.T) {
		c := NewCalculator(nil, nil)
		q := c.Calculate(Environment{
			World:         "overworld",
			GameMode:      "SURVIVAL",
			DimensionType: "minecraft:overworld",
			Custom:        map[string]string{"region": "spawn"},
		})
		require.Equal(t,
			"{dimension-type=minecraft:overworld,gamemode=survival,region=spawn,world=overworld}",
			q.String())
	})
	t.Run("not set gamemode omitted", func(t *testing.T) {
		q := NewCalculator(nil, nil).Calculate(Environment{GameMode: NotSetGameMode})
		require.Equal(t, 0, q.Len())
	})
	t.Run("disabled keys", func(t *testing.T) {
		c := NewCalculator([]string{"World", GameModeKey}, nil)
		require.False(t, c.Enabled(WorldKey))
		q := c.Calculate(Environment{World: "w", GameMode: "creative", DimensionType: "d"})
		require.Equal(t, "{dimension-type=d}", q.String())
	})
	t.Run("world rewrites", func(t *testing.T) {
		c := NewCalculator(nil, map[string]string{
			"World_Nether": "nether",
			"nether":       "hell",
			"hell":         "world_nether", // cycle
		})
		q := c.Calculate(Environment{World: "world_nether"})
		require.Equal(t, []string{"hell", "nether", "world_nether"}, q.Values(WorldKey))
	})
}
