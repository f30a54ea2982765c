package config

import "time"

// CLIConfig is the configuration for keymesh-cli (~/.keymesh/cli.yaml).
type CLIConfig struct {
	// Default connection settings
	DefaultServer string        `yaml:"default_server"`
	DefaultOutput string        `yaml:"default_output"` // raw, table, json, yaml
	Timeout       time.Duration `yaml:"timeout"`

	// HistoryFile is the REPL history location; "-" disables persistence.
	HistoryFile string `yaml:"history_file,omitempty"`

	// Saved connections, selectable with "connect use <name>"
	Connections map[string]ConnectionConfig `yaml:"connections,omitempty"`

	// Current active connection
	CurrentConnection string `yaml:"current_connection,omitempty"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	Server  string        `yaml:"server"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:6379",
		DefaultOutput: "raw",
		Timeout:       5 * time.Second,
		Connections:   make(map[string]ConnectionConfig),
	}
}

// Server returns the address of the current connection, falling back to
// DefaultServer.
func (c *CLIConfig) Server() string {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && conn.Server != "" {
		return conn.Server
	}
	return c.DefaultServer
}

// RequestTimeout returns the current connection's timeout, falling back to
// Timeout.
func (c *CLIConfig) RequestTimeout() time.Duration {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && conn.Timeout > 0 {
		return conn.Timeout
	}
	return c.Timeout
}
