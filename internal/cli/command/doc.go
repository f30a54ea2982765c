// Package command defines the keymesh-cli application on urfave/cli/v2.
//
// With positional arguments the CLI sends them as one command and prints
// the reply. Without arguments it starts the interactive prompt. Three
// subcommand groups manage local state and the admin API:
//
//   - connect: saved connections in ~/.keymesh/cli.yaml
//   - admin: health, info, clients and log level over HTTP
//   - config: show the CLI configuration, validate server files
package command
