package repl

import (
	"slices"
	"strings"
)

// builtins are handled by the REPL itself.
var builtins = []string{"EXIT", "HELP", "HISTORY", "QUIT"}

// Completer matches command names by prefix, case-insensitively.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over commands plus the REPL builtins.
func NewCompleter(commands []string) *Completer {
	all := make([]string, 0, len(commands)+len(builtins))
	for _, c := range commands {
		all = append(all, strings.ToUpper(c))
	}
	all = append(all, builtins...)
	slices.Sort(all)
	return &Completer{commands: slices.Compact(all)}
}

// Complete returns the command names starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
