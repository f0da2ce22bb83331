package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/pkg/cmd"
	"github.com/keshon/guild-dispatch/pkg/util"
)

const (
	discordMaxMessageLength = 2000
	codeLeftBlockWrapper    = "```md"
	codeRightBlockWrapper   = "```"
)

var maxContentLength = discordMaxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:        "log",
		Permissions: discordgo.PermissionManageGuild,
		Arguments:   noArguments,
		Handler:     commandLog,
	})
}

// commandLog shows the guild's command history, newest first, trimmed to
// one Discord message.
func commandLog(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	records, err := env.Storage.CommandHistory(msg.GuildID())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return reply(ctx, inv, inv.Locale.Get("empty"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-19s\t%-15s\t%-15s\t%s\n", "# Datetime", "# Username", "# Channel", "# Command")
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		line := strings.TrimSpace(rec.Command + " " + rec.Param)
		entry := fmt.Sprintf("%-19s\t%-15s\t#%-14s\t%s\n",
			util.FormatDateTpl(rec.Datetime, "YYYY-MM-DD hh:mm:ss"),
			rec.Username,
			rec.ChannelName,
			line,
		)
		if b.Len()+len(entry) > maxContentLength {
			break
		}
		b.WriteString(entry)
	}

	return reply(ctx, inv, codeLeftBlockWrapper+"\n"+b.String()+codeRightBlockWrapper)
}
