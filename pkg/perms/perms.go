// Package perms wires the permission pipeline into a runnable instance:
// the rule engine, the simulated host, the session coordinator and the
// operator console all sharing one event manager and tick loop.
package perms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.minekube.com/common/minecraft/component"
	"golang.org/x/sync/errgroup"

	"go.minekube.com/perms/pkg/command"
	"go.minekube.com/perms/pkg/engine/memory"
	"go.minekube.com/perms/pkg/engine/registry"
	"go.minekube.com/perms/pkg/host"
	"go.minekube.com/perms/pkg/host/sim"
	"go.minekube.com/perms/pkg/i18n"
	"go.minekube.com/perms/pkg/inject"
	"go.minekube.com/perms/pkg/internal/reload"
	"go.minekube.com/perms/pkg/perms/config"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/scheduler"
	"go.minekube.com/perms/pkg/session"
)

// Options are the options for a Perms instance.
type Options struct {
	// Config is the validated configuration. Required.
	Config *config.Config
	// Console reads operator commands. No console is started if nil.
	Console io.Reader
	// Out receives console output, defaults to os.Stdout.
	Out    io.Writer
	Logger logr.Logger
}

// Perms is a runnable permission pipeline.
type Perms struct {
	log        logr.Logger
	cfg        *config.Config
	event      event.Manager
	registry   *registry.Registry
	engine     *memory.Engine
	sync       *scheduler.Sync
	pool       *scheduler.Pool
	server     *sim.Server
	translator *i18n.Translator
	injector   *inject.Injector
	sessions   *session.Coordinator
	console    *Console

	in io.Reader

	mu   sync.Mutex // protects stop
	stop context.CancelFunc
}

// New returns a new Perms instance and loads the rules file.
// Missing rules files start with empty rules.
func New(opts Options) (*Perms, error) {
	if opts.Config == nil {
		return nil, errors.New("missing config")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	cfg := opts.Config
	log := opts.Logger

	p := &Perms{
		log:        log,
		cfg:        cfg,
		event:      event.New(log.WithName("event")),
		registry:   registry.New(),
		translator: i18n.Default(),
		in:         opts.Console,
	}
	p.engine = memory.New(memory.Options{
		Event:    p.event,
		Registry: p.registry,
		Logger:   log,
	})
	if err := p.engine.LoadFile(cfg.RulesFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Info("rules file not found, starting with empty rules", "path", cfg.RulesFile)
	}

	p.sync = scheduler.NewSync(log.WithName("sync"))
	p.pool = scheduler.NewPool(context.Background(), cfg.AsyncWorkers)
	p.console = newConsole(p, opts.Out)
	p.server = sim.New(sim.Options{
		Event:     p.event,
		Source:    p.source,
		OnMessage: p.console.playerMessage,
		Logger:    log,
	})
	p.sync.OnTick(p.server.Tick)

	if cfg.Commands.Inject {
		p.injector = inject.New(inject.Options{
			Namespace: cfg.Commands.Namespace,
			Check:     command.CheckSource,
			Registry:  p.registry,
			Logger:    log,
		})
	}

	var err error
	p.sessions, err = session.New(session.Options{
		Engine:     p.engine,
		Server:     p.server,
		Sync:       p.sync,
		Event:      p.event,
		Translator: p.translator,
		Calculator: query.NewCalculator(cfg.Contexts.Disabled, cfg.Contexts.WorldRewrites),
		Async:      p.pool,
		Injector:   p.injector,
		Policy: session.Policy{
			CancelFailedLogins: cfg.Negotiation.CancelFailedLogins,
			DebugLogins:        cfg.Negotiation.DebugLogins,
			LoadTimeout:        cfg.Negotiation.LoadTimeout,
			LoadRate:           cfg.Negotiation.LoadRate,
			LoadBurst:          cfg.Negotiation.LoadBurst,
		},
		NotifyDelay:       cfg.Notifier.Delay,
		NotifyIdleTimeout: cfg.Notifier.IdleTimeout,
		AutoOp:            cfg.AutoOp,
		DisableOps:        cfg.DisableOps(),
		Logger:            log,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating session coordinator: %w", err)
	}
	p.sessions.Subscribe(p.event)
	reload.Subscribe(p.event, func(e *reload.UpdateEvent[memory.Document]) {
		p.log.Info("rules reloaded", "groups", len(e.Value.Groups), "users", len(e.Value.Users))
	})

	// announce the game commands after everything subscribed
	p.server.BuildCommands()
	return p, nil
}

// source returns the command source of a player: its session if
// it has one and the bare player otherwise.
func (p *Perms) source(player host.Player) command.Source {
	if s, ok := p.sessions.Session(player.ID()); ok {
		return s
	}
	return player.(*sim.Player)
}

func (p *Perms) Event() event.Manager           { return p.event }
func (p *Perms) Engine() *memory.Engine         { return p.engine }
func (p *Perms) Server() *sim.Server            { return p.server }
func (p *Perms) Sessions() *session.Coordinator { return p.sessions }
func (p *Perms) Console() *Console              { return p.console }
func (p *Perms) Sync() *scheduler.Sync          { return p.sync }

// Start runs the instance until ctx is canceled or Shutdown is called.
func (p *Perms) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return errors.New("already started")
	}
	p.stop = cancel
	p.mu.Unlock()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return p.sync.Run(ctx, p.cfg.TickRate) })
	eg.Go(func() error { return p.sessions.Start(ctx) })
	if p.cfg.WatchRules {
		eg.Go(func() error {
			return reload.Watch(logr.NewContext(ctx, p.log), p.cfg.RulesFile, p.ReloadRules)
		})
	}
	if p.in != nil {
		eg.Go(func() error { return p.console.Run(ctx, p.in) })
	}
	p.log.Info("perms started", "rules", p.cfg.RulesFile)

	err := eg.Wait()
	p.pool.Wait()
	p.log.Info("perms stopped")
	return err
}

// Shutdown stops a started instance.
func (p *Perms) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
	}
}

// ReloadRules reads the rules file again and replaces all rules.
// Sessions of affected players are recalculated.
func (p *Perms) ReloadRules() error {
	f, err := os.Open(p.cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("error opening rules file: %w", err)
	}
	defer f.Close()
	doc, err := memory.Decode(f)
	if err != nil {
		return err
	}
	p.engine.Replace(doc)
	reload.FireUpdate(p.event, doc)
	return nil
}

// Broadcast sends msg to every player with a session, in their locale.
func (p *Perms) Broadcast(msg component.Component) {
	for _, s := range p.sessions.Sessions() {
		_ = s.SendMessage(msg)
	}
}
