package contextcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/query"
)

type fakeEnv struct {
	mu    sync.Mutex
	env   query.Environment
	gone  bool
	calls int
}

func (f *fakeEnv) set(world string) {
	f.mu.Lock()
	f.env.World = world
	f.mu.Unlock()
}

func (f *fakeEnv) compute(calc *query.Calculator) ComputeFunc {
	return func() (*query.QueryOptions, bool) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gone {
			return nil, false
		}
		f.calls++
		return calc.Calculate(f.env), true
	}
}

func TestCache_CoalescesInvalidations(t *testing.T) {
	calc := query.NewCalculator(nil, nil)
	env := &fakeEnv{env: query.Environment{World: "world", GameMode: "survival"}}
	c := New(env.compute(calc))

	first := c.QueryOptions()
	require.True(t, first.Has(query.WorldKey, "world"))
	require.Same(t, first, c.QueryOptions(), "valid cache must not recompute")

	for _, w := range []string{"nether", "the_end", "lobby"} {
		env.set(w)
		c.Invalidate()
	}
	got := c.QueryOptions()
	require.Equal(t, 2, env.calls)
	require.True(t, got.Equal(calc.Calculate(query.Environment{World: "lobby", GameMode: "survival"})))
	require.EqualValues(t, 2, c.Recomputes())
}

func TestCache_ReadAfterInvalidateSeesLatest(t *testing.T) {
	calc := query.NewCalculator(nil, nil)
	env := &fakeEnv{env: query.Environment{World: "a"}}
	c := New(env.compute(calc))
	require.Equal(t, []string{"a"}, c.QueryOptions().Values(query.WorldKey))

	env.set("b")
	// not invalidated yet, stale value is fine
	require.Equal(t, []string{"a"}, c.QueryOptions().Values(query.WorldKey))
	c.Invalidate()
	require.Equal(t, []string{"b"}, c.QueryOptions().Values(query.WorldKey))
}

func TestCache_StaleOnTeardown(t *testing.T) {
	calc := query.NewCalculator(nil, nil)
	env := &fakeEnv{env: query.Environment{World: "a"}}
	c := New(env.compute(calc))
	before := c.QueryOptions()

	env.mu.Lock()
	env.gone = true
	env.mu.Unlock()
	c.Invalidate()
	require.Same(t, before, c.QueryOptions())

	c.Close()
	env.mu.Lock()
	env.gone = false
	env.mu.Unlock()
	require.Same(t, before, c.QueryOptions())
	require.Equal(t, 1, env.calls)
}

func TestCache_EmptyBeforeFirstCompute(t *testing.T) {
	c := New(func() (*query.QueryOptions, bool) { return nil, false })
	require.Same(t, query.Empty, c.QueryOptions())
	require.Same(t, query.Empty, c.Peek())

	c = New(func() (*query.QueryOptions, bool) { return nil, true })
	require.Same(t, query.Empty, c.QueryOptions())
}

func TestCache_Concurrent(t *testing.T) {
	var n atomic.Int64
	c := New(func() (*query.QueryOptions, bool) {
		return query.New(query.Context{Key: "n", Value: string(rune('a' + n.Inc()%26))}), true
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Invalidate()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, 1, c.QueryOptions().Len())
			}
		}()
	}
	wg.Wait()

	// after all invalidations completed a read must recompute once
	before := c.Recomputes()
	c.Invalidate()
	c.QueryOptions()
	c.QueryOptions()
	require.Equal(t, before+1, c.Recomputes())
}
