package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

var ErrNoFeeds = errors.New("no feed subscriber configured")

var youtubeIDArg = cmd.Argument{Name: "[YOUTUBE CHANNEL ID]", Types: []cmd.ArgType{cmd.TypeString}}

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:        "youtube",
		Permissions: discordgo.PermissionManageGuild,
		Subcommands: []*cmd.Command{
			{
				Name: "subscribe",
				Arguments: []cmd.Argument{
					{Name: "[CHANNEL MENTION/ID]", Types: []cmd.ArgType{cmd.TypeChannel}},
					youtubeIDArg,
					{Name: "[TEXT]", Types: []cmd.ArgType{cmd.TypeString}, Variadic: true},
				},
				Handler: youtubeSubscribe,
			},
			{Name: "unsubscribe", Arguments: []cmd.Argument{youtubeIDArg}, Handler: youtubeUnsubscribe},
			{Name: "list", Arguments: noArguments, Handler: youtubeList},
		},
	})
}

func youtubeSubscribe(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	if env.Feeds == nil {
		return ErrNoFeeds
	}
	channelID, youtubeID := args[0].(string), args[1].(string)
	text := strings.Join(strs(args[2]), " ")
	if text == "" {
		return reply(ctx, inv, inv.Locale.Get("noText"))
	}

	channel, ok, err := msg.Channel(ctx, channelID)
	if err != nil {
		return err
	}
	if !ok {
		return reply(ctx, inv, inv.Locale.Get("channelNotFound"))
	}

	last, err := env.Feeds.Subscribe(ctx, youtubeID)
	if err != nil {
		return reply(ctx, inv, inv.Locale.GetFormatted("feedError", youtubeID))
	}

	err = env.Storage.SetNotification(storage.YouTubeNotification{
		GuildID:   msg.GuildID(),
		YouTubeID: youtubeID,
		ChannelID: channelID,
		Text:      text,
		LastVideo: last,
	})
	if err != nil {
		return err
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("subscribed", env.Feeds.ChannelURL(youtubeID), channel.Name))
}

func youtubeUnsubscribe(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	youtubeID := args[0].(string)
	found, err := env.Storage.RemoveNotification(msg.GuildID(), youtubeID)
	if err != nil {
		return err
	}
	if !found {
		return reply(ctx, inv, inv.Locale.GetFormatted("notSubscribed", youtubeID))
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("unsubscribed", youtubeID))
}

func youtubeList(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	rows, err := env.Storage.GuildNotifications(msg.GuildID())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return reply(ctx, inv, inv.Locale.Get("noSubscriptions"))
	}

	out := []string{inv.Locale.Get("subscriptions")}
	for _, n := range rows {
		url := n.YouTubeID
		if env.Feeds != nil {
			url = env.Feeds.ChannelURL(n.YouTubeID)
		}
		out = append(out, inv.Locale.GetFormatted("subscriptionEntry", url, n.ChannelID, n.Text))
	}
	return reply(ctx, inv, lines(out...))
}
