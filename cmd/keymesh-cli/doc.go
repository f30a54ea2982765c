// Command keymesh-cli is the command-line client for keymesh-server.
//
// Usage:
//
//	keymesh-cli [-s host:port] [-o raw|table|json|yaml] COMMAND [ARG...]
//	keymesh-cli [-s host:port]
//	keymesh-cli connect add|list|use|remove|ping
//	keymesh-cli admin [--url URL] [--token TOKEN] health|info|clients|log-level
//	keymesh-cli config cli show|path|init
//	keymesh-cli config server test FILE
//
// Global flags must precede the command. The exit status is 1 when the
// server answers a one-shot command with an error reply.
package main
