package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"go.minekube.com/perms/pkg/scheduler"
)

const delay = 30 * time.Millisecond

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) perform(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[key]++
}

func (c *counter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func TestNotifier_CoalescesBurst(t *testing.T) {
	var c counter
	n := New(c.perform, Options{Delay: delay})
	defer n.Stop()

	for i := 0; i < 10; i++ {
		n.Request("alice")
	}
	n.Request("bob")

	require.Eventually(t, func() bool { return c.get("alice") == 1 && c.get("bob") == 1 },
		time.Second, time.Millisecond)
	time.Sleep(3 * delay)
	require.Equal(t, 1, c.get("alice"))
	require.Equal(t, 1, c.get("bob"))
	require.EqualValues(t, 2, n.Performed())
}

func TestNotifier_SeparateWindows(t *testing.T) {
	var c counter
	n := New(c.perform, Options{Delay: delay})
	defer n.Stop()

	n.Request("alice")
	require.Eventually(t, func() bool { return c.get("alice") == 1 }, time.Second, time.Millisecond)
	n.Request("alice")
	require.Eventually(t, func() bool { return c.get("alice") == 2 }, time.Second, time.Millisecond)
	time.Sleep(3 * delay)
	require.Equal(t, 2, c.get("alice"))
}

func TestNotifier_ResetsDeadline(t *testing.T) {
	var c counter
	n := New(c.perform, Options{Delay: 4 * delay})
	defer n.Stop()

	start := time.Now()
	n.Request("alice")
	time.Sleep(2 * delay)
	n.Request("alice")
	require.Eventually(t, func() bool { return c.get("alice") == 1 }, time.Second, time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 6*delay)
}

func TestNotifier_RequestWhileRunning(t *testing.T) {
	var (
		running atomic.Int32
		overlap atomic.Bool
		calls   atomic.Int32
	)
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	n := New(func(string) {
		if running.Inc() > 1 {
			overlap.Store(true)
		}
		defer running.Dec()
		if calls.Inc() == 1 {
			entered <- struct{}{}
			<-release
		}
	}, Options{Delay: delay})
	defer n.Stop()

	n.Request("alice")
	<-entered
	// arrives mid-action, must not be lost nor run concurrently
	n.Request("alice")
	n.Request("alice")
	time.Sleep(3 * delay)
	require.EqualValues(t, 1, calls.Load())

	close(release)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(3 * delay)
	require.EqualValues(t, 2, calls.Load())
	require.False(t, overlap.Load())
}

func TestNotifier_Evict(t *testing.T) {
	var c counter
	n := New(c.perform, Options{Delay: delay})
	defer n.Stop()

	n.Request("alice")
	require.Equal(t, 1, n.Len())
	n.Evict("alice")
	require.Zero(t, n.Len())
	time.Sleep(3 * delay)
	require.Zero(t, c.get("alice"))

	// a later request starts over
	n.Request("alice")
	require.Eventually(t, func() bool { return c.get("alice") == 1 }, time.Second, time.Millisecond)
}

func TestNotifier_IdleEviction(t *testing.T) {
	var c counter
	n := New(c.perform, Options{Delay: time.Millisecond, IdleTimeout: 2 * delay})
	defer n.Stop()

	n.Request("alice")
	require.Eventually(t, func() bool { return c.get("alice") == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		n.buckets.DeleteExpired()
		return n.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_RunsOnExecutor(t *testing.T) {
	var c counter
	exec := scheduler.NewSync(logr.Discard())
	n := New(c.perform, Options{Delay: time.Millisecond, Executor: exec})
	defer n.Stop()

	n.Request("alice")
	require.Eventually(t, func() bool { return exec.Pending() == 1 }, time.Second, time.Millisecond)
	require.Zero(t, c.get("alice"))
	exec.Tick()
	require.Equal(t, 1, c.get("alice"))
}

func TestNotifier_RecoversPanic(t *testing.T) {
	var calls atomic.Int32
	n := New(func(string) {
		if calls.Inc() == 1 {
			panic("boom")
		}
	}, Options{Delay: time.Millisecond})
	defer n.Stop()

	n.Request("alice")
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	n.Request("alice")
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	assert.EqualValues(t, 2, n.Performed())
}
