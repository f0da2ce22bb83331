package commands

import (
	"context"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:      "help",
		Arguments: []cmd.Argument{{Name: "[COMMAND]", Types: []cmd.ArgType{cmd.TypeString}, Default: ""}},
		Handler:   help,
	})
}

func help(ctx context.Context, inv *cmd.Invocation, args []any) error {
	registry := cmd.DefaultRegistry
	prefix := ""
	if env, msg, err := session(inv); err == nil {
		if env.Registry != nil {
			registry = env.Registry
		}
		if env.Storage != nil {
			if s, err := env.Storage.Settings(msg.GuildID()); err == nil {
				prefix = s.Prefix
			}
		}
	}
	shortcuts := inv.Guild != nil && inv.Guild.Shortcuts()
	root := rootLocale(inv.Locale)

	if name := args[0].(string); name != "" {
		c := findRoot(registry, name, shortcuts)
		if c == nil {
			return reply(ctx, inv, inv.Locale.GetFormatted("commandNotFound", name))
		}
		out := []string{helpEntry(inv.Locale, root, c, shortcuts)}
		if len(c.Subcommands) > 0 {
			out = append(out, inv.Locale.Get("subcommands"))
			sub := root.GetCommandLocale(c.Name, true)
			for _, s := range c.Subcommands {
				out = append(out, helpEntry(inv.Locale, sub, s, shortcuts))
			}
		}
		return reply(ctx, inv, lines(out...))
	}

	out := []string{inv.Locale.GetFormatted("header", prefix)}
	for _, c := range registry.Sorted() {
		out = append(out, helpEntry(inv.Locale, root, c, shortcuts))
	}
	return reply(ctx, inv, lines(out...))
}

func findRoot(r *cmd.Registry, name string, shortcuts bool) *cmd.Command {
	if c := r.Get(name); c != nil {
		return c
	}
	if !shortcuts {
		return nil
	}
	for _, c := range r.Commands() {
		if c.Shortcut == name {
			return c
		}
	}
	return nil
}

// helpEntry formats c with the description found under parent's
// commands.<name>.description.
func helpEntry(l, parent cmd.Locale, c *cmd.Command, shortcuts bool) string {
	desc := ""
	if parent != nil {
		if cl := parent.GetCommandLocale(c.Name, true); cl != nil {
			desc, _ = cl.Lookup("description")
		}
	}
	if shortcuts && c.Shortcut != "" {
		return l.GetFormatted("entryShortcut", c.Name, c.Shortcut, desc)
	}
	return l.GetFormatted("entry", c.Name, desc)
}
