// Package config is the configuration of the perms binary.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.minekube.com/perms/pkg/debounce"
	"go.minekube.com/perms/pkg/inject"
	"go.minekube.com/perms/pkg/query"
)

// DefaultConfig is a default Config.
var DefaultConfig = Config{
	TickRate:     50 * time.Millisecond,
	AsyncWorkers: 16,
	Negotiation: Negotiation{
		LoadTimeout: 30 * time.Second,
	},
	Notifier: Notifier{
		Delay:       debounce.DefaultDelay,
		IdleTimeout: debounce.DefaultIdleTimeout,
	},
	Commands: Commands{
		Namespace: inject.DefaultNamespace,
		Inject:    true,
	},
	OpsEnabled: true,
	RulesFile:  "rules.yml",
	WatchRules: true,
	Telemetry: Telemetry{
		ServiceName: "perms",
	},
}

// Config is the root configuration of perms.
type Config struct {
	// TickRate is the period of the synchronous tick.
	TickRate time.Duration `json:"tickRate,omitempty" yaml:"tickRate,omitempty"`
	// AsyncWorkers bounds concurrent user data loads, <= 0 is unbounded.
	AsyncWorkers int         `json:"asyncWorkers,omitempty" yaml:"asyncWorkers,omitempty"`
	Negotiation  Negotiation `json:"negotiation,omitempty" yaml:"negotiation,omitempty"`
	Notifier     Notifier    `json:"notifier,omitempty" yaml:"notifier,omitempty"`
	Contexts     Contexts    `json:"contexts,omitempty" yaml:"contexts,omitempty"`
	Commands     Commands    `json:"commands,omitempty" yaml:"commands,omitempty"`
	// AutoOp grants operator status to players with the perms.autoop permission.
	// If enabled, OpsEnabled is ignored.
	AutoOp bool `json:"autoOp,omitempty" yaml:"autoOp,omitempty"`
	// OpsEnabled keeps the vanilla op system. If disabled, every operator
	// is removed on start and the op and deop commands are denied.
	OpsEnabled bool `json:"opsEnabled" yaml:"opsEnabled"`
	// RulesFile is the YAML file of the built-in rule engine.
	RulesFile  string    `json:"rulesFile,omitempty" yaml:"rulesFile,omitempty"`
	WatchRules bool      `json:"watchRules,omitempty" yaml:"watchRules,omitempty"`
	Telemetry  Telemetry `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	Debug      bool      `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Negotiation configures how connections wait for their data.
type Negotiation struct {
	// CancelFailedLogins disconnects players whose data failed to load
	// instead of letting them join with restricted permissions.
	CancelFailedLogins bool          `json:"cancelFailedLogins,omitempty" yaml:"cancelFailedLogins,omitempty"`
	DebugLogins        bool          `json:"debugLogins,omitempty" yaml:"debugLogins,omitempty"`
	LoadTimeout        time.Duration `json:"loadTimeout,omitempty" yaml:"loadTimeout,omitempty"`
	// LoadRate limits loads per second, 0 is unlimited.
	LoadRate  float64 `json:"loadRate,omitempty" yaml:"loadRate,omitempty"`
	LoadBurst int     `json:"loadBurst,omitempty" yaml:"loadBurst,omitempty"`
}

// Notifier configures command tree refreshes.
type Notifier struct {
	Delay       time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	IdleTimeout time.Duration `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`
}

// Contexts configures the contexts calculated for players.
type Contexts struct {
	// Disabled context keys are never calculated.
	Disabled []string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	// WorldRewrites adds aliases for worlds, e.g. world_nether: world.
	WorldRewrites map[string]string `json:"worldRewrites,omitempty" yaml:"worldRewrites,omitempty"`
}

// Commands configures the permissions injected into commands.
type Commands struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Inject    bool   `json:"inject" yaml:"inject"`
}

// Telemetry configures OpenTelemetry.
// Exporters are configured with the standard OTEL_* environment variables.
type Telemetry struct {
	Enabled     bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
}

// SetDefault abstracts setting Viper defaults.
type SetDefault interface {
	SetDefault(key string, value any)
}

// SetDefaults sets the DefaultConfig values as defaults.
func SetDefaults(i SetDefault) {
	d := DefaultConfig
	i.SetDefault("tickRate", d.TickRate)
	i.SetDefault("asyncWorkers", d.AsyncWorkers)
	i.SetDefault("negotiation.loadTimeout", d.Negotiation.LoadTimeout)
	i.SetDefault("notifier.delay", d.Notifier.Delay)
	i.SetDefault("notifier.idleTimeout", d.Notifier.IdleTimeout)
	i.SetDefault("commands.namespace", d.Commands.Namespace)
	i.SetDefault("commands.inject", d.Commands.Inject)
	i.SetDefault("opsEnabled", d.OpsEnabled)
	i.SetDefault("rulesFile", d.RulesFile)
	i.SetDefault("watchRules", d.WatchRules)
	i.SetDefault("telemetry.serviceName", d.Telemetry.ServiceName)
}

var namespaceRegexp = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Validate validates a Config.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }
	if c == nil {
		e("config must not be nil")
		return
	}

	if c.TickRate <= 0 {
		e("Invalid tick rate %s, must be positive", c.TickRate)
	} else if c.TickRate > time.Second {
		w("Tick rate %s is very slow, negotiations and refreshes will lag", c.TickRate)
	}
	if c.AsyncWorkers <= 0 {
		w("Async workers are unbounded")
	}

	n := c.Negotiation
	if n.LoadTimeout < 0 {
		e("Invalid negotiation load timeout %s, must be >= 0", n.LoadTimeout)
	} else if n.LoadTimeout == 0 {
		w("Negotiation loads have no timeout, a stuck load stalls the handshake forever")
	}
	if n.LoadRate < 0 {
		e("Invalid negotiation load rate %v, must be >= 0", n.LoadRate)
	}
	if n.LoadBurst < 0 {
		e("Invalid negotiation load burst %d, must be >= 0", n.LoadBurst)
	}
	if !n.CancelFailedLogins {
		w("Players whose data failed to load join with restricted permissions")
	}

	if c.Notifier.Delay <= 0 {
		e("Invalid notifier delay %s, must be positive", c.Notifier.Delay)
	}
	if c.Notifier.IdleTimeout > 0 && c.Notifier.IdleTimeout < c.Notifier.Delay {
		e("Notifier idle timeout %s must not be shorter than the delay %s",
			c.Notifier.IdleTimeout, c.Notifier.Delay)
	}

	known := map[string]bool{query.WorldKey: true, query.GameModeKey: true, query.DimensionTypeKey: true}
	for _, k := range c.Contexts.Disabled {
		if !known[strings.ToLower(k)] {
			w("Disabled context %q is not calculated by perms", k)
		}
	}
	for from, to := range c.Contexts.WorldRewrites {
		if strings.EqualFold(from, to) {
			w("World rewrite %q points to itself", from)
		}
	}

	if c.Commands.Inject && !namespaceRegexp.MatchString(c.Commands.Namespace) {
		e("Invalid command namespace %q, must match %s", c.Commands.Namespace, namespaceRegexp)
	}

	if c.AutoOp && !c.OpsEnabled {
		w("opsEnabled is ignored while autoOp is enabled")
	}
	if c.RulesFile == "" {
		e("rulesFile must not be empty")
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		e("Telemetry service name cannot be empty when telemetry is enabled")
	}
	return
}

// DisableOps reports whether the op system is disabled.
func (c *Config) DisableOps() bool {
	return !c.OpsEnabled && !c.AutoOp
}
