package command

import (
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/cli/config"
	"github.com/yndnr/keymesh/internal/cli/output"
)

// ConnectCommand returns the saved-connection subcommand group.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Manage saved connections",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Save a connection",
				ArgsUsage: "NAME SERVER",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "request timeout for this connection",
					},
					&cli.BoolFlag{
						Name:  "use",
						Usage: "make it the current connection",
					},
				},
				Action: connectAdd,
			},
			{
				Name:   "list",
				Usage:  "List saved connections",
				Action: connectList,
			},
			{
				Name:      "use",
				Usage:     "Switch to a saved connection",
				ArgsUsage: "NAME",
				Action:    connectUse,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a saved connection",
				ArgsUsage: "NAME",
				Action:    connectRemove,
			},
			{
				Name:   "ping",
				Usage:  "Check the current server answers PING",
				Action: connectPing,
			},
		},
	}
}

// loadFileConfig reads the config file without env or flag overrides, so
// that saving it does not persist them.
func loadFileConfig(c *cli.Context) (*Env, *config.CLIConfig, error) {
	env := GetEnv(c)
	if env == nil {
		return nil, nil, fmt.Errorf("cli not initialized")
	}
	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	return env, cfg, nil
}

func saveConfig(env *Env, cfg *config.CLIConfig) error {
	return config.Save(cfg, env.ConfigPath)
}

func connectAdd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: connect add NAME SERVER")
	}
	env, cfg, err := loadFileConfig(c)
	if err != nil {
		return err
	}

	name := c.Args().Get(0)
	cfg.Connections[name] = config.ConnectionConfig{
		Server:  c.Args().Get(1),
		Timeout: c.Duration("timeout"),
	}
	if c.Bool("use") {
		cfg.CurrentConnection = name
	}
	if err := saveConfig(env, cfg); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "saved connection %q\n", name)
	return nil
}

func connectList(c *cli.Context) error {
	env, cfg, err := loadFileConfig(c)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	slices.Sort(names)

	type row struct {
		Name    string `json:"name" yaml:"name"`
		Server  string `json:"server" yaml:"server"`
		Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		Current bool   `json:"current" yaml:"current"`
	}
	rows := make([]row, 0, len(names))
	for _, name := range names {
		conn := cfg.Connections[name]
		r := row{Name: name, Server: conn.Server, Current: name == cfg.CurrentConnection}
		if conn.Timeout > 0 {
			r.Timeout = conn.Timeout.String()
		}
		rows = append(rows, r)
	}

	switch env.Format {
	case output.FormatJSON:
		return output.EncodeJSON(env.Out, rows)
	case output.FormatYAML:
		return output.EncodeYAML(env.Out, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(env.Out, "no saved connections")
		return nil
	}
	t := &output.Table{Headers: []string{"", "NAME", "SERVER", "TIMEOUT"}}
	for _, r := range rows {
		mark := ""
		if r.Current {
			mark = "*"
		}
		timeout := r.Timeout
		if timeout == "" {
			timeout = "-"
		}
		t.AddRow(mark, r.Name, r.Server, timeout)
	}
	return t.Render(env.Out)
}

func connectUse(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}
	env, cfg, err := loadFileConfig(c)
	if err != nil {
		return err
	}
	if _, ok := cfg.Connections[name]; !ok {
		return fmt.Errorf("connection %q is not defined", name)
	}
	cfg.CurrentConnection = name
	if err := saveConfig(env, cfg); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "using connection %q (%s)\n", name, cfg.Server())
	return nil
}

func connectRemove(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}
	env, cfg, err := loadFileConfig(c)
	if err != nil {
		return err
	}
	if _, ok := cfg.Connections[name]; !ok {
		return fmt.Errorf("connection %q is not defined", name)
	}
	delete(cfg.Connections, name)
	if cfg.CurrentConnection == name {
		cfg.CurrentConnection = ""
	}
	if err := saveConfig(env, cfg); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "removed connection %q\n", name)
	return nil
}

func connectPing(c *cli.Context) error {
	env := GetEnv(c)
	if env == nil {
		return fmt.Errorf("cli not initialized")
	}
	start := time.Now()
	reply, err := env.Conn.Do(c.Context, "PING")
	if err != nil {
		return err
	}
	if reply.IsError() {
		return fmt.Errorf("%s: %s", env.Conn.Addr(), reply.Str)
	}
	fmt.Fprintf(env.Out, "%s: %s in %v\n", env.Conn.Addr(), reply.Str, time.Since(start).Round(time.Microsecond))
	return nil
}
