// Package middleware holds cmd.Middleware shared by every transport.
package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

// CommandLog logs every executed command and appends it to the guild's
// command history. History failures are logged, never returned.
func CommandLog(store *storage.Storage, log zerolog.Logger, now func() time.Time) cmd.Middleware {
	if now == nil {
		now = time.Now
	}
	return func(next cmd.Handler) cmd.Handler {
		return func(ctx context.Context, inv *cmd.Invocation, args []any) error {
			start := now()
			err := next(ctx, inv, args)

			name := strings.Join(inv.Path, " ")
			param := FormatArgs(args)
			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}

			msg, ok := inv.Message.(commands.GuildMessage)
			if ok {
				ev = ev.Str("guild", msg.GuildID()).Str("channel", msg.ChannelID()).Str("user", msg.AuthorID())
			}
			ev.Str("command", name).Str("param", param).Dur("took", now().Sub(start)).Msg("command executed")

			if !ok || store == nil {
				return err
			}
			rec := storage.CommandHistoryRecord{
				ChannelID:   msg.ChannelID(),
				ChannelName: msg.ChannelName(),
				UserID:      msg.AuthorID(),
				Username:    msg.AuthorName(),
				Command:     name,
				Param:       param,
				Datetime:    start,
			}
			if herr := store.AppendCommandToHistory(msg.GuildID(), rec); herr != nil {
				log.Warn().Err(herr).Str("command", name).Msg("failed to record command")
			}
			return err
		}
	}
}

// FormatArgs renders parsed arguments back into one line; variadic slots
// are flattened.
func FormatArgs(args []any) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if list, ok := a.([]any); ok {
			for _, item := range list {
				parts = append(parts, fmt.Sprint(item))
			}
			continue
		}
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}
