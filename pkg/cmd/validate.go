package cmd

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMalformedDefinition marks a command tree that must not be dispatched.
var ErrMalformedDefinition = errors.New("malformed command definition")

// IsValid reports whether c and all of its descendants are well formed.
func IsValid(c *Command) bool {
	return Validate(c) == nil
}

// Validate checks c recursively and stops at the first problem. The error
// wraps ErrMalformedDefinition and names the offending command path.
func Validate(c *Command) error {
	return validate(c, nil)
}

func validate(c *Command, path []string) error {
	if c == nil {
		return malformed(path, "nil command")
	}
	path = append(path, c.Name)

	if c.Name == "" || strings.IndexFunc(c.Name, unicode.IsSpace) >= 0 {
		return malformed(path, "name must be a single non-empty token")
	}
	if strings.IndexFunc(c.Shortcut, unicode.IsSpace) >= 0 {
		return malformed(path, "shortcut must be a single token")
	}
	if c.Handler == nil && c.Subcommands == nil {
		return malformed(path, "command needs a handler or subcommands")
	}
	if c.Scope != ScopeGuild && c.Scope != ScopeChannel {
		return malformed(path, "unknown permission scope")
	}

	seen := make(map[string]struct{}, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		if err := validate(sub, path); err != nil {
			return err
		}
		if _, dup := seen[sub.Name]; dup {
			return malformed(path, fmt.Sprintf("duplicate subcommand %q", sub.Name))
		}
		seen[sub.Name] = struct{}{}
	}

	for i, arg := range c.Arguments {
		if len(arg.Types) == 0 {
			return malformed(path, fmt.Sprintf("argument %d has no types", i+1))
		}
		for _, tag := range arg.Types {
			if !knownArgType(tag) {
				return malformed(path, fmt.Sprintf("argument %d has unknown type %q", i+1, tag))
			}
		}
		if arg.Variadic && i != len(c.Arguments)-1 {
			return malformed(path, fmt.Sprintf("variadic argument %d is not last", i+1))
		}
	}
	return nil
}

func malformed(path []string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedDefinition, strings.Join(path, " "), reason)
}
