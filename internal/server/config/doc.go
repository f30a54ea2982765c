// Package config defines the keymesh-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation of addresses, timeouts, shards and logging
//   - sanitize.go: masking secrets before the config is logged
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// KEYMESH_ environment variables and command-line flags.
package config
