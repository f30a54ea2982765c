package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/cli/config"
	"github.com/yndnr/keymesh/internal/cli/connection"
	"github.com/yndnr/keymesh/internal/cli/output"
	"github.com/yndnr/keymesh/internal/infra/buildinfo"
	"github.com/yndnr/keymesh/internal/infra/tlsroots"
)

// ErrServerReply is returned in one-shot mode when the server answered
// with an error reply. The reply itself has already been printed.
var ErrServerReply = errors.New("server returned an error reply")

const envKey = "env"

// Env is the state shared by all commands of one invocation.
type Env struct {
	Config     *config.CLIConfig
	ConfigPath string
	Conn       *connection.Manager
	Format     output.Format
	Formatter  output.Formatter
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "keymesh-cli",
		Usage:     "command-line client for keymesh",
		UsageText: "keymesh-cli [global options] [COMMAND [ARG...]]\n\nWithout a command, an interactive prompt starts.",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			ConnectCommand(),
			AdminCommand(),
			ConfigCommand(),
		},
		Before: setupEnv,
		After: func(c *cli.Context) error {
			if env := GetEnv(c); env != nil {
				env.Conn.Close()
			}
			return nil
		},
		Action: rootAction,
	}
}

// globalFlags returns the global CLI flags. Their environment variables
// are applied by config.Merge so that the file, env and flags resolve in
// one place.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address, host:port or a unix socket path (env KEYMESH_SERVER)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: raw, table, json, yaml (env KEYMESH_OUTPUT)",
		},
		&cli.StringFlag{
			Name:  "timeout",
			Usage: "dial and request timeout, e.g. 5s (env KEYMESH_TIMEOUT)",
		},
		&cli.StringFlag{
			Name:  "history-file",
			Usage: "REPL history file, \"-\" to disable (env KEYMESH_HISTORY_FILE)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI configuration file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect over TLS (implied by any other --tls-* flag)",
		},
		&cli.StringFlag{
			Name:  "tls-ca",
			Usage: "PEM file with an extra trusted CA",
		},
		&cli.StringFlag{
			Name:  "tls-server-name",
			Usage: "server name to verify instead of the dialed host",
		},
		&cli.StringFlag{
			Name:  "tls-cert",
			Usage: "client certificate for mutual TLS",
		},
		&cli.StringFlag{
			Name:  "tls-key",
			Usage: "client private key for mutual TLS",
		},
		&cli.BoolFlag{
			Name:  "tls-insecure",
			Usage: "skip server certificate verification",
		},
	}
}

// dialOptions returns the connection options selected by the TLS flags.
func dialOptions(c *cli.Context) ([]connection.DialOption, error) {
	enabled := c.Bool("tls")
	for _, name := range []string{"tls-ca", "tls-server-name", "tls-cert", "tls-key", "tls-insecure"} {
		enabled = enabled || c.IsSet(name)
	}
	if !enabled {
		return nil, nil
	}

	tlsCfg, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
		CAFile:             c.String("tls-ca"),
		ServerName:         c.String("tls-server-name"),
		CertFile:           c.String("tls-cert"),
		KeyFile:            c.String("tls-key"),
		InsecureSkipVerify: c.Bool("tls-insecure"),
	})
	if err != nil {
		return nil, err
	}
	return []connection.DialOption{connection.WithTLS(tlsCfg)}, nil
}

func setupEnv(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := make(map[string]string)
	for flag, key := range map[string]string{
		"server":       "server",
		"output":       "output",
		"timeout":      "timeout",
		"history-file": "history_file",
	} {
		if c.IsSet(flag) {
			flags[key] = c.String(flag)
		}
	}

	merged, err := config.Merge(cfg, config.EnvOverrides(), flags)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(merged.DefaultOutput)
	if err != nil {
		return err
	}
	dialOpts, err := dialOptions(c)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = &Env{
		Config:     merged,
		ConfigPath: path,
		Conn:       connection.NewManager(merged.Server(), merged.RequestTimeout(), dialOpts...),
		Format:     format,
		Formatter:  output.NewFormatter(format),
		In:         c.App.Reader,
		Out:        c.App.Writer,
		Err:        c.App.ErrWriter,
	}
	return nil
}

// GetEnv retrieves the invocation state from context.
func GetEnv(c *cli.Context) *Env {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env
	}
	return nil
}

func rootAction(c *cli.Context) error {
	env := GetEnv(c)
	if env == nil {
		return fmt.Errorf("cli not initialized")
	}
	if c.NArg() > 0 {
		return runOnce(c.Context, env, c.Args().Slice())
	}
	return runREPL(c.Context, env)
}
