package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/cli/output"
	"github.com/yndnr/keymesh/internal/infra/confloader"
	serverconfig "github.com/yndnr/keymesh/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "cli",
				Usage: "CLI local configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective CLI configuration",
						Action: configCLIShow,
					},
					{
						Name:   "path",
						Usage:  "Print the CLI configuration file path",
						Action: configCLIPath,
					},
					{
						Name:   "init",
						Usage:  "Write the default CLI configuration if none exists",
						Action: configCLIInit,
					},
				},
			},
			{
				Name:  "server",
				Usage: "Server configuration files",
				Subcommands: []*cli.Command{
					{
						Name:      "test",
						Usage:     "Validate a server configuration file",
						ArgsUsage: "FILE",
						Action:    configServerTest,
					},
				},
			},
		},
	}
}

func configCLIShow(c *cli.Context) error {
	env := GetEnv(c)
	if env.Format == output.FormatJSON {
		return output.EncodeJSON(env.Out, env.Config)
	}
	return output.EncodeYAML(env.Out, env.Config)
}

func configCLIPath(c *cli.Context) error {
	env := GetEnv(c)
	fmt.Fprintln(env.Out, env.ConfigPath)
	return nil
}

func configCLIInit(c *cli.Context) error {
	env, cfg, err := loadFileConfig(c)
	if err != nil {
		return err
	}
	if _, err := os.Stat(env.ConfigPath); err == nil {
		return fmt.Errorf("%s already exists", env.ConfigPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := saveConfig(env, cfg); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "wrote %s\n", env.ConfigPath)
	return nil
}

// configServerTest checks a keymesh-server file the way the server would
// read it, without environment overrides.
func configServerTest(c *cli.Context) error {
	env := GetEnv(c)
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}

	loader := confloader.NewLoader()
	if err := loader.LoadFile(path); err != nil {
		return err
	}
	cfg := serverconfig.Default()
	if err := loader.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, key := range loader.UnknownKeys(cfg) {
		fmt.Fprintf(env.Err, "warning: unknown key %q\n", key)
	}
	if err := serverconfig.Verify(cfg); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", path, err)
	}

	fmt.Fprintf(env.Out, "%s is valid\n", path)
	return nil
}
