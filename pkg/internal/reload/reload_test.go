package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestSubscribe(t *testing.T) {
	mgr := event.New()
	var got *string
	unsub := Subscribe(mgr, func(e *UpdateEvent[string]) { got = e.Value })

	v := "rules"
	FireUpdate(mgr, &v)
	require.Equal(t, &v, got)

	unsub()
	other := "other"
	FireUpdate(mgr, &other)
	require.Equal(t, &v, got)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("groups: {}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() error {
			calls.Inc()
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("groups: {default: {}}\n"), 0o644)
		return calls.Load() > 0
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}

func TestWatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, Watch(ctx, "missing.yml", func() error { return nil }))
}
