package session

import (
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"golang.org/x/time/rate"

	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/i18n"
	"go.minekube.com/perms/pkg/inject"
	"go.minekube.com/perms/pkg/internal/future"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/scheduler"
)

// Options are the options for a Coordinator.
type Options struct {
	Engine engine.Engine   // Required.
	Server host.Server     // Required.
	Sync   *scheduler.Sync // Required synchronous tick context.

	// Event is the manager negotiation events are fired on.
	Event event.Manager
	// Translator renders the messages shown to players.
	Translator *i18n.Translator
	// Calculator derives contexts from player environments.
	Calculator *query.Calculator
	// Async runs user data loads. Defaults to a goroutine per load.
	Async future.Executor
	// Injector guards the commands of every CommandsBuiltEvent.
	// Commands are left alone if nil.
	Injector *inject.Injector

	Policy Policy

	// NotifyDelay is the quiet period before commands are refreshed.
	NotifyDelay time.Duration
	// NotifyIdleTimeout evicts refresh state of quiet sessions.
	NotifyIdleTimeout time.Duration

	// AutoOp grants operator status to players with AutoOpPermission.
	AutoOp bool
	// DisableOps denies the op and deop commands
	// and clears all operators on Start.
	DisableOps bool

	Logger logr.Logger
}

// Policy decides how connections whose permission data
// could not be loaded are treated.
type Policy struct {
	// CancelFailedLogins disconnects players without data.
	// Otherwise they join restricted and get a warning.
	CancelFailedLogins bool
	// DebugLogins logs every phase of a negotiation.
	DebugLogins bool
	// LoadTimeout bounds a single user data load. Zero means no timeout.
	LoadTimeout time.Duration
	// LoadRate limits user data loads per second. Zero means no limit.
	LoadRate float64
	// LoadBurst is the burst size of LoadRate. Defaults to 1.
	LoadBurst int
}

func (p Policy) limiter() *rate.Limiter {
	if p.LoadRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := p.LoadBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(p.LoadRate), burst)
}

func (o *Options) validate() error {
	switch {
	case o.Engine == nil:
		return errors.New("missing engine")
	case o.Server == nil:
		return errors.New("missing host server")
	case o.Sync == nil:
		return errors.New("missing sync executor")
	}
	if o.Event == nil {
		o.Event = event.Nop
	}
	if o.Translator == nil {
		o.Translator = i18n.Default()
	}
	if o.Calculator == nil {
		o.Calculator = query.NewCalculator(nil, nil)
	}
	if o.Async == nil {
		o.Async = future.GoroutineExecutor
	}
	return nil
}
