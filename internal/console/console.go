package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/keshon/guild-dispatch/internal/bot"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

// Console feeds lines to the router as messages of the console author.
type Console struct {
	router *bot.Router
	store  *storage.Storage
	guild  *Guild
	out    io.Writer
	log    zerolog.Logger
}

func New(router *bot.Router, store *storage.Storage, guild *Guild, out io.Writer, log zerolog.Logger) *Console {
	return &Console{router: router, store: store, guild: guild, out: out, log: log}
}

// Exec runs one command line. The guild prefix is optional.
func (c *Console) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	settings, err := c.store.Settings(GuildID)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, settings.Prefix) {
		line = settings.Prefix + line
	}

	msg := &Message{guild: c.guild, content: line, out: c.out}
	_, err = c.router.Handle(ctx, msg, "")
	return err
}

// Loop reads commands until EOF, "exit" or ctx ends. "guild" prints the
// seeded guild.
func (c *Console) Loop(ctx context.Context, rl *readline.Instance) error {
	for ctx.Err() == nil {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		case "guild":
			c.guild.Describe(c.out)
			continue
		}
		if err := c.Exec(ctx, line); err != nil {
			c.log.Debug().Err(err).Str("line", line).Msg("command failed")
		}
	}
	return ctx.Err()
}

// Completer offers the root command names of r.
func Completer(r *cmd.Registry) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{readline.PcItem("guild"), readline.PcItem("exit")}
	for _, c := range r.Sorted() {
		subs := make([]readline.PrefixCompleterInterface, 0, len(c.Subcommands))
		for _, s := range c.Subcommands {
			subs = append(subs, readline.PcItem(s.Name))
		}
		items = append(items, readline.PcItem(c.Name, subs...))
	}
	return readline.NewPrefixCompleter(items...)
}
