// Package config provides keymesh-cli configuration.
//
// The file lives at ~/.keymesh/cli.yaml and holds the default server,
// output format, request timeout, history location and named connections.
// Values resolve in this order, highest first:
//
//  1. Command-line flags
//  2. KEYMESH_SERVER, KEYMESH_OUTPUT, KEYMESH_TIMEOUT, KEYMESH_HISTORY_FILE
//  3. The current named connection
//  4. File defaults, then built-in defaults
package config
