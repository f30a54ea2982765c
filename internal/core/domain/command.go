// Package domain defines the core domain models for keymesh.
package domain

import (
	"bytes"
	"strings"
)

// Command is a parsed client request: an upper-cased name and its arguments.
type Command struct {
	Name string
	Args []string
}

// NewCommand builds a Command from raw protocol tokens.
// The first token is the command name. It returns false for an empty slice.
func NewCommand(tokens [][]byte) (Command, bool) {
	if len(tokens) == 0 {
		return Command{}, false
	}
	args := make([]string, len(tokens)-1)
	for i, t := range tokens[1:] {
		args[i] = string(t)
	}
	return Command{Name: normalizeName(tokens[0]), Args: args}, true
}

// Key returns the first argument, or "" when there are none.
func (c Command) Key() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the command for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

func normalizeName(b []byte) string {
	// Uppercase ASCII without allocating twice for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
