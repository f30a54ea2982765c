package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/keymesh/internal/cli/output"
)

// Environment variables read by Merge.
const (
	EnvServer      = "KEYMESH_SERVER"
	EnvOutput      = "KEYMESH_OUTPUT"
	EnvTimeout     = "KEYMESH_TIMEOUT"
	EnvHistoryFile = "KEYMESH_HISTORY_FILE"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "cli.yaml"
	}
	return filepath.Join(homeDir, ".keymesh", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields Default().
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration with 0600 permissions, creating its
// directory if needed.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Merge applies environment variables and then flags on top of cfg. Both
// maps use the keys server, output, timeout and history_file; env holds
// the values of the KEYMESH_* variables already mapped to those keys.
// An explicit server deselects the saved connection.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) (*CLIConfig, error) {
	merged := *cfg
	for _, src := range []map[string]string{env, flags} {
		for key, val := range src {
			if val == "" {
				continue
			}
			switch key {
			case "server":
				merged.DefaultServer = val
				merged.CurrentConnection = ""
			case "output":
				merged.DefaultOutput = val
			case "timeout":
				d, err := time.ParseDuration(val)
				if err != nil {
					return nil, fmt.Errorf("timeout: %w", err)
				}
				merged.Timeout = d
			case "history_file":
				merged.HistoryFile = val
			}
		}
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// EnvOverrides collects the KEYMESH_* variables read by Merge.
func EnvOverrides() map[string]string {
	return map[string]string{
		"server":       os.Getenv(EnvServer),
		"output":       os.Getenv(EnvOutput),
		"timeout":      os.Getenv(EnvTimeout),
		"history_file": os.Getenv(EnvHistoryFile),
	}
}

// Validate checks the output format, timeout and saved connections.
func (c *CLIConfig) Validate() error {
	var errs []error
	if _, err := output.ParseFormat(c.DefaultOutput); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	for name, conn := range c.Connections {
		if conn.Server == "" {
			errs = append(errs, fmt.Errorf("connection %q has no server", name))
		}
	}
	if c.CurrentConnection != "" {
		if _, ok := c.Connections[c.CurrentConnection]; !ok {
			errs = append(errs, fmt.Errorf("current connection %q is not defined", c.CurrentConnection))
		}
	}
	return errors.Join(errs...)
}
