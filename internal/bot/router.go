// Package bot turns inbound guild messages into command invocations. It is
// shared by the Discord adapter and the local console.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
	"github.com/keshon/guild-dispatch/pkg/util"
)

const limiterTTL = 10 * time.Minute

type Deps struct {
	Storage    *storage.Storage
	Bundle     *locale.Bundle
	Env        *commands.Env
	Registry   *cmd.Registry
	Scheme     cmd.PermissionScheme
	Middleware []cmd.Middleware
	// RatePerSecond and Burst bound the commands one user may run. Zero
	// RatePerSecond disables the limit.
	RatePerSecond float64
	Burst         int
	Logger        zerolog.Logger
}

// Router resolves the guild's prefix and locale, rate limits authors and
// dispatches the command.
type Router struct {
	store    *storage.Storage
	bundle   *locale.Bundle
	env      *commands.Env
	disp     *cmd.Dispatcher
	limiters *util.ForgetfulMap[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	log      zerolog.Logger
}

func NewRouter(d Deps) *Router {
	registry := d.Registry
	if registry == nil {
		registry = cmd.DefaultRegistry
	}
	burst := d.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Router{
		store:    d.Storage,
		bundle:   d.Bundle,
		env:      d.Env,
		disp:     registry.Dispatcher(d.Scheme, d.Middleware...),
		limiters: util.NewForgetfulMap[string, *rate.Limiter](limiterTTL),
		limit:    rate.Limit(d.RatePerSecond),
		burst:    burst,
		log:      d.Logger,
	}
}

// Run sweeps idle rate limiters until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	return r.limiters.Run(ctx, time.Minute)
}

// Handle runs the command in msg, if any. botID lets a mention of the bot
// stand in for the prefix; pass "" where mentions make no sense.
func (r *Router) Handle(ctx context.Context, msg commands.GuildMessage, botID string) (cmd.Outcome, error) {
	settings, err := r.store.Settings(msg.GuildID())
	if err != nil {
		return cmd.NoMatch, err
	}

	text, ok := StripPrefix(msg.Content(), settings.Prefix, botID)
	if !ok {
		return cmd.NoMatch, nil
	}
	tokens := cmd.Tokenize(text)
	if len(tokens) == 0 {
		return cmd.NoMatch, nil
	}

	l := r.bundle.Locale(settings.Locale)
	if !r.allow(msg.AuthorID()) {
		r.log.Debug().Str("user", msg.AuthorID()).Msg("rate limited")
		return cmd.Handled, msg.Reply(ctx, l.GetCommon("rateLimited"))
	}

	inv := &cmd.Invocation{
		Message: msg,
		Guild:   guildConfig(settings.Shortcuts),
		Locale:  l,
		Data:    r.env,
	}
	outcome, err := r.disp.Dispatch(ctx, inv, tokens)
	if err != nil {
		r.log.Error().Err(err).Str("guild", msg.GuildID()).Str("text", text).Msg("command failed")
		if rerr := msg.Reply(ctx, l.GetCommon("commandError")); rerr != nil {
			r.log.Warn().Err(rerr).Msg("failed to report command error")
		}
		return outcome, err
	}
	if outcome == cmd.NoMatch {
		return outcome, msg.Reply(ctx, l.GetCommonFormatted("unknownCommand", settings.Prefix))
	}
	return outcome, nil
}

func (r *Router) allow(userID string) bool {
	if r.limit <= 0 {
		return true
	}
	lim := r.limiters.GetOrCreate(userID, func() *rate.Limiter {
		return rate.NewLimiter(r.limit, r.burst)
	})
	return lim.Allow()
}

// StripPrefix removes the guild prefix, or a leading mention of the bot,
// from content.
func StripPrefix(content, prefix, botID string) (string, bool) {
	content = strings.TrimSpace(content)
	if botID != "" {
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if rest, ok := strings.CutPrefix(content, mention); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	if prefix == "" {
		return "", false
	}
	return strings.CutPrefix(content, prefix)
}

type guildConfig bool

func (g guildConfig) Shortcuts() bool { return bool(g) }
