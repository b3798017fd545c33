package repl

import (
	"sort"
	"strings"
)

var builtins = []string{"help", "history", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over names plus the shell builtins.
func NewCompleter(names ...string) *Completer {
	seen := map[string]bool{}
	var commands []string
	for _, n := range append(names, builtins...) {
		if n != "" && !seen[n] {
			seen[n] = true
			commands = append(commands, n)
		}
	}
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is exactly one of the commands.
func (c *Completer) Known(name string) bool {
	i := sort.SearchStrings(c.commands, name)
	return i < len(c.commands) && c.commands[i] == name
}
