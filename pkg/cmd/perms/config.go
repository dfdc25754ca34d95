package perms

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.minekube.com/perms/pkg/configs"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Output default configuration file",
		Description: `Output the default configuration file to stdout or a file.
You can redirect to a file or use the --write flag:

	perms config > config.yml
	perms config --write              # Writes to config.yml
	perms config --type rules --write # Writes to rules.yml

Available config types:
  - config (default): Full configuration with all options
  - rules: Example rules of the built-in rule engine`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Config type: config or rules",
				Value:   "config",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write to config.yml or rules.yml instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			var (
				configBytes []byte
				outputFile  string
			)
			switch configType := c.String("type"); configType {
			case "config":
				configBytes, outputFile = configs.DefaultConfigBytes, defaultConfigFile
			case "rules":
				configBytes, outputFile = configs.RulesBytes, "rules.yml"
			default:
				return cli.Exit(fmt.Sprintf("unknown config type: %s (valid types: config, rules)", configType), 1)
			}

			if c.Bool("write") {
				err := os.WriteFile(outputFile, configBytes, 0644)
				if err != nil {
					return cli.Exit(fmt.Errorf("error writing config to %q: %w", outputFile, err), 1)
				}
				_, _ = fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", outputFile)
				return nil
			}

			_, err := c.App.Writer.Write(configBytes)
			if err != nil {
				return cli.Exit(fmt.Errorf("error writing config: %w", err), 1)
			}
			return nil
		},
	}
}
