// Package repl implements the interactive mode of keymesh-cli.
//
// Lines are tokenized with redis-cli quoting rules and handed to an
// Executor. The builtins exit, quit, help [prefix] and history are handled
// locally. History persists to ~/.keymesh/history between sessions.
package repl
