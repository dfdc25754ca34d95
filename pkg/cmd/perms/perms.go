// Package perms is the command line interface of the perms binary.
package perms

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.minekube.com/perms/pkg/perms"
	"go.minekube.com/perms/pkg/perms/config"
	"go.minekube.com/perms/pkg/telemetry"
	"go.minekube.com/perms/pkg/util/errs"
	"go.minekube.com/perms/pkg/util/interrupt"
	"go.minekube.com/perms/pkg/version"
)

const defaultConfigFile = "config.yml"

// App returns the perms command line app.
func App() *cli.App {
	versionFlag := &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print the version",
	}
	cli.VersionFlag = versionFlag

	app := cli.NewApp()
	app.Name = "perms"
	app.Usage = "Per-player permission sessions for Minecraft servers."
	app.Description = `Perms loads the permission data of connecting players,
keeps their contexts up to date and guards every command with a permission.

Start with the interactive console and join players:

	perms config --write
	perms -d
	> join Notch
	> check Notch command.gamemode`
	app.Version = version.String()
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage: `config file (default: ./config.yml)
Supports: yaml/yml, json, toml`,
			EnvVars: []string{"PERMS_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug mode and highest log verbosity",
			EnvVars: []string{"PERMS_DEBUG"},
		},
		&cli.IntFlag{
			Name:    "verbosity",
			Aliases: []string{"v"},
			Usage:   "The higher the verbosity the more logs are shown",
			EnvVars: []string{"PERMS_VERBOSITY"},
		},
		&cli.BoolFlag{
			Name:  "no-console",
			Usage: "Do not read console commands from stdin",
		},
		versionFlag,
	}
	app.Commands = []*cli.Command{
		configCommand(),
	}
	app.Action = func(c *cli.Context) error {
		v := viper.New()
		if err := initViper(c, v); err != nil {
			return cli.Exit(err, 1)
		}

		var cfg config.Config
		if err := v.Unmarshal(&cfg); err != nil {
			return cli.Exit(fmt.Errorf("error loading config: %w", err), 1)
		}
		if c.IsSet("debug") {
			cfg.Debug = c.Bool("debug")
		}

		verbosity := c.Int("verbosity")
		if cfg.Debug {
			verbosity = 10
		}
		log, err := newLogger(cfg.Debug, verbosity)
		if err != nil {
			return cli.Exit(fmt.Errorf("error creating zap logger: %w", err), 1)
		}
		if file := v.ConfigFileUsed(); file != "" {
			log.Info("using config file", "config", file)
		}

		warns, errList := cfg.Validate()
		for _, w := range warns {
			log.Info("config validation warn", "warn", w)
		}
		if err := errs.Join("config", errList); err != nil {
			return cli.Exit(err, 1)
		}

		if err := run(c, &cfg, log); err != nil {
			log.Error(err, "error running perms")
			return cli.Exit("", 1)
		}
		return nil
	}
	return app
}

func run(c *cli.Context, cfg *config.Config, log logr.Logger) error {
	shutdown, err := telemetry.Init(cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer shutdown()

	ctx, stop := interrupt.TerminationContext(c.Context)
	defer stop()

	opts := perms.Options{Config: cfg, Logger: log}
	if !c.Bool("no-console") {
		opts.Console = os.Stdin
	}
	p, err := perms.New(opts)
	if err != nil {
		return err
	}
	return p.Start(ctx)
}

// initViper reads the config file and binds the PERMS_ environment variables.
// A missing default config file is not an error.
func initViper(c *cli.Context, v *viper.Viper) error {
	config.SetDefaults(v)
	v.SetEnvPrefix("PERMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := c.String("config")
	if file == "" {
		file = defaultConfigFile
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if !c.IsSet("config") && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errs.ErrMissingConfig, file)
		}
		return fmt.Errorf("error reading config file %q: %w", file, err)
	}
	return nil
}

// newLogger returns a logr.Logger backed by zap.
// verbosity enables logr V-levels up to the given level.
func newLogger(debug bool, verbosity int) (logr.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = !debug

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}
