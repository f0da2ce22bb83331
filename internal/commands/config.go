package commands

import (
	"context"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

var channelsArg = cmd.Argument{Name: "[CHANNEL MENTION/ID]", Types: []cmd.ArgType{cmd.TypeChannel}, Variadic: true}

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:        "config",
		Permissions: discordgo.PermissionManageGuild,
		Subcommands: []*cmd.Command{
			{
				Name:      "prefix",
				Arguments: []cmd.Argument{{Name: "[PREFIX]", Types: []cmd.ArgType{cmd.TypeString}}},
				Handler:   configPrefix,
			},
			{
				Name:      "locale",
				Arguments: []cmd.Argument{{Name: "[LOCALE]", Types: []cmd.ArgType{cmd.TypeString}}},
				Handler:   configLocale,
			},
			{
				Name:      "shortcuts",
				Arguments: []cmd.Argument{{Name: "[ON/OFF]", Types: []cmd.ArgType{cmd.TypeBoolean}}},
				Handler:   configShortcuts,
			},
			{
				Name: "roleaccess",
				Subcommands: []*cmd.Command{
					{Name: "add", Arguments: []cmd.Argument{channelsArg}, Handler: roleAccessChannels(true)},
					{Name: "remove", Arguments: []cmd.Argument{channelsArg}, Handler: roleAccessChannels(false)},
					{
						Name:      "mode",
						Arguments: []cmd.Argument{{Name: "[WHITELIST]", Types: []cmd.ArgType{cmd.TypeBoolean}}},
						Handler:   roleAccessMode,
					},
					{Name: "list", Arguments: noArguments, Handler: roleAccessList},
				},
			},
			{Name: "show", Arguments: noArguments, Handler: configShow},
		},
	})
}

func configPrefix(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	prefix := args[0].(string)
	if _, err := env.Storage.UpdateSettings(msg.GuildID(), func(s *storage.Settings) { s.Prefix = prefix }); err != nil {
		return err
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("prefixSet", prefix))
}

func configLocale(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	tag := args[0].(string)
	if env.Languages == nil || !env.Languages.Has(tag) {
		var known []string
		if env.Languages != nil {
			known = env.Languages.Tags()
		}
		return reply(ctx, inv, inv.Locale.GetFormatted("unknownLocale", tag, strings.Join(known, inv.Locale.GetCommon("listSeparator"))))
	}
	if _, err := env.Storage.UpdateSettings(msg.GuildID(), func(s *storage.Settings) { s.Locale = tag }); err != nil {
		return err
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("localeSet", tag))
}

func configShortcuts(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	on := args[0].(bool)
	if _, err := env.Storage.UpdateSettings(msg.GuildID(), func(s *storage.Settings) { s.Shortcuts = on }); err != nil {
		return err
	}
	if on {
		return reply(ctx, inv, inv.Locale.Get("shortcutsEnabled"))
	}
	return reply(ctx, inv, inv.Locale.Get("shortcutsDisabled"))
}

// roleAccessChannels builds "config roleaccess add" (add) and "remove".
func roleAccessChannels(add bool) cmd.Handler {
	noneKey, doneKey := "noChannelRemoved", "channelsRemoved"
	if add {
		noneKey, doneKey = "noChannelAdded", "channelsAdded"
	}

	return func(ctx context.Context, inv *cmd.Invocation, args []any) error {
		env, msg, err := session(inv)
		if err != nil {
			return err
		}

		ids := strs(args[0])
		if add {
			known := ids[:0]
			for _, id := range ids {
				_, ok, err := msg.Channel(ctx, id)
				if err != nil {
					return err
				}
				if ok {
					known = append(known, id)
				}
			}
			ids = known
		}

		var changed []string
		_, err = env.Storage.UpdateSettings(msg.GuildID(), func(s *storage.Settings) {
			for _, id := range ids {
				listed := slices.Contains(s.RoleAccessChannels, id)
				switch {
				case add && !listed:
					s.RoleAccessChannels = append(s.RoleAccessChannels, id)
				case !add && listed:
					s.RoleAccessChannels = slices.DeleteFunc(s.RoleAccessChannels, func(c string) bool { return c == id })
				default:
					continue
				}
				changed = append(changed, id)
			}
		})
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return reply(ctx, inv, inv.Locale.Get(noneKey))
		}

		out := []string{inv.Locale.Get(doneKey)}
		entries, err := channelEntries(ctx, inv, msg, changed)
		if err != nil {
			return err
		}
		return reply(ctx, inv, lines(append(out, entries...)...))
	}
}

func roleAccessMode(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	whitelist := args[0].(bool)
	if _, err := env.Storage.UpdateSettings(msg.GuildID(), func(s *storage.Settings) { s.RoleAccessWhitelist = whitelist }); err != nil {
		return err
	}
	if whitelist {
		return reply(ctx, inv, inv.Locale.Get("whitelistMode"))
	}
	return reply(ctx, inv, inv.Locale.Get("blacklistMode"))
}

func roleAccessList(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	settings, err := env.Storage.Settings(msg.GuildID())
	if err != nil {
		return err
	}

	header := inv.Locale.GetCommon("roleAccessBlacklist")
	if settings.RoleAccessWhitelist {
		header = inv.Locale.GetCommon("roleAccessWhitelist")
	}
	if len(settings.RoleAccessChannels) == 0 {
		return reply(ctx, inv, lines(header, inv.Locale.Get("noChannels")))
	}

	entries, err := channelEntries(ctx, inv, msg, settings.RoleAccessChannels)
	if err != nil {
		return err
	}
	return reply(ctx, inv, lines(append([]string{header}, entries...)...))
}

func channelEntries(ctx context.Context, inv *cmd.Invocation, msg GuildMessage, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		name := inv.Locale.GetCommon("unknownChannel")
		c, ok, err := msg.Channel(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			name = c.Name
		}
		out = append(out, inv.Locale.GetCommonFormatted("channelListEntry", name, id))
	}
	return out, nil
}

func configShow(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	s, err := env.Storage.Settings(msg.GuildID())
	if err != nil {
		return err
	}

	shortcuts := inv.Locale.GetCommon("off")
	if s.Shortcuts {
		shortcuts = inv.Locale.GetCommon("on")
	}
	mode := inv.Locale.GetCommon("roleAccessBlacklist")
	if s.RoleAccessWhitelist {
		mode = inv.Locale.GetCommon("roleAccessWhitelist")
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("settings", s.Prefix, s.Locale, shortcuts, mode, len(s.RoleAccessChannels)))
}
