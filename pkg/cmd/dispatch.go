package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Outcome tells the caller whether the engine took responsibility for a
// message.
type Outcome int

const (
	// NoMatch means no command name or shortcut matched the first token.
	NoMatch Outcome = iota
	// Handled means a command matched. Whatever happened afterwards (a gate,
	// a parse error, a failing handler) the caller must not try a fallback.
	Handled
)

func (o Outcome) String() string {
	if o == Handled {
		return "handled"
	}
	return "no match"
}

// Dispatcher walks a command tree against a token stream. It holds no
// mutable state and may be shared between goroutines.
type Dispatcher struct {
	Commands    []*Command
	Permissions PermissionScheme
	Middleware  []Middleware
}

// Dispatch matches tokens against the root commands and runs whatever they
// select. The error reports failed replies, guard and handler errors; it
// never turns a Handled outcome into NoMatch.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation, tokens []string) (Outcome, error) {
	return d.dispatch(ctx, inv, tokens, d.Commands)
}

func (d *Dispatcher) dispatch(ctx context.Context, inv *Invocation, tokens []string, siblings []*Command) (Outcome, error) {
	if len(tokens) == 0 {
		return NoMatch, nil
	}
	name, rest := tokens[0], tokens[1:]

	shortcuts := inv.Guild != nil && inv.Guild.Shortcuts()
	for _, c := range siblings {
		if !c.matches(name, shortcuts) {
			continue
		}
		return Handled, d.run(ctx, inv, c, rest)
	}
	return NoMatch, nil
}

// run executes a committed match. Siblings are never revisited from here.
func (d *Dispatcher) run(ctx context.Context, inv *Invocation, c *Command, rest []string) error {
	if c.Permissions != 0 {
		blocked, err := CheckPermissions(ctx, inv, c.Permissions, c.Scope, d.Permissions)
		if blocked {
			return err
		}
	}

	local := inv.Locale.GetCommandLocale(c.Name, true)
	if local == nil {
		local = inv.Locale
	}
	sub := inv.descend(c.Name, local)

	if c.Guard != nil {
		ok, err := c.Guard(ctx, sub)
		if err != nil {
			return fmt.Errorf("guard %s: %w", strings.Join(sub.Path, " "), err)
		}
		if !ok {
			return nil
		}
	}

	if c.Subcommands != nil {
		outcome, err := d.dispatch(ctx, sub, rest, c.Subcommands)
		if outcome == Handled {
			return err
		}
	}

	if c.Handler == nil {
		return reply(ctx, inv, inv.Locale.GetCommon("noSubcommand"))
	}

	args, err := ParseArguments(rest, c.Arguments)
	if err != nil {
		var argErr *ArgumentError
		if !errors.As(err, &argErr) {
			return fmt.Errorf("parse %s: %w", strings.Join(sub.Path, " "), err)
		}
		return reply(ctx, inv, argumentErrorText(inv.Locale, argErr))
	}

	h := Apply(c.Handler, d.Middleware...)
	if err := h(ctx, sub, args); err != nil {
		return fmt.Errorf("run %s: %w", strings.Join(sub.Path, " "), err)
	}
	return nil
}

func argumentErrorText(l Locale, e *ArgumentError) string {
	if e.Kind == MissingRequired {
		return l.GetCommonFormatted("missingArg", e.Arg.Name, e.Index+1)
	}
	return l.GetCommonFormatted("wrongArgType", e.Arg.Name, e.Index+1, ListArgumentTypes(l, e.Arg))
}

// ListArgumentTypes renders the accepted types of arg through the
// common.argumentTypes sub-locale.
func ListArgumentTypes(l Locale, arg Argument) string {
	names := l.GetSubLocale("common.argumentTypes", true)
	out := make([]string, len(arg.Types))
	for i, t := range arg.Types {
		out[i] = string(t)
		if names == nil {
			continue
		}
		if name, ok := names.Lookup(string(t)); ok {
			out[i] = name
		}
	}
	return strings.Join(out, l.GetCommon("listSeparator"))
}

func reply(ctx context.Context, inv *Invocation, text string) error {
	if err := inv.Message.Reply(ctx, text); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}
