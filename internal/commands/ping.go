package commands

import (
	"context"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:      "ping",
		Arguments: noArguments,
		Handler:   ping,
	})
}

func ping(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, ok := inv.Data.(*Env)
	if !ok || env == nil || env.Latency == nil || env.Latency() <= 0 {
		return reply(ctx, inv, inv.Locale.Get("pong"))
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("pongLatency", env.Latency().Milliseconds()))
}
