package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/guild-dispatch/internal/bot"
	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/config"
	"github.com/keshon/guild-dispatch/internal/console"
	"github.com/keshon/guild-dispatch/internal/discord"
	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/internal/logging"
	"github.com/keshon/guild-dispatch/internal/middleware"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	storagePath string
	history     string
}

func rootCommand() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:          "guild-dispatch-cli",
		Short:        "Run bot commands against a local guild",
		Long:         "Starts an interactive console that dispatches commands through the bot router, with an in-memory guild in place of Discord.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withConsole(c.Context(), opts, func(ctx context.Context, con *console.Console) error {
				rl, err := readline.NewEx(&readline.Config{
					Prompt:          "> ",
					HistoryFile:     opts.history,
					AutoComplete:    console.Completer(cmd.DefaultRegistry),
					InterruptPrompt: "^C",
					EOFPrompt:       "exit",
				})
				if err != nil {
					return fmt.Errorf("init readline: %w", err)
				}
				defer rl.Close()

				fmt.Fprintln(c.OutOrStdout(), "Type a command, `guild` to list the local guild, `exit` to leave.")
				return con.Loop(ctx, rl)
			})
		},
	}
	root.PersistentFlags().StringVar(&opts.storagePath, "storage", "", "datastore file (defaults to STORAGE_PATH)")
	root.Flags().StringVar(&opts.history, "history", "", "readline history file")

	root.AddCommand(&cobra.Command{
		Use:   "run COMMAND [ARGS...]",
		Short: "Run one command and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withConsole(c.Context(), opts, func(ctx context.Context, con *console.Console) error {
				return con.Exec(ctx, strings.Join(args, " "))
			})
		},
	})
	return root
}

// withConsole builds the same router stack as the Discord bot, minus the
// gateway and the feed poller.
func withConsole(ctx context.Context, opts options, fn func(context.Context, *console.Console) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.storagePath != "" {
		cfg.StoragePath = opts.storagePath
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: true})
	if err != nil {
		return err
	}
	log = log.Level(max(log.GetLevel(), zerolog.WarnLevel))

	bundle, err := locale.NewBundle(cfg.DefaultLocale)
	if err != nil {
		return err
	}
	if cfg.LocaleDir != "" {
		if err := bundle.LoadDir(cfg.LocaleDir); err != nil {
			return err
		}
	}

	store, err := storage.New(cfg.StoragePath, storage.Settings{
		Prefix:    cfg.DefaultPrefix,
		Locale:    cfg.DefaultLocale,
		Shortcuts: true,
	}, logging.Component(log, "storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	router := bot.NewRouter(bot.Deps{
		Storage:    store,
		Bundle:     bundle,
		Env:        &commands.Env{Storage: store, Languages: bundle, Registry: cmd.DefaultRegistry, DeveloperID: console.AuthorID},
		Registry:   cmd.DefaultRegistry,
		Scheme:     discord.Scheme,
		Middleware: []cmd.Middleware{middleware.CommandLog(store, logging.Component(log, "commands"), time.Now)},
		Logger:     logging.Component(log, "router"),
	})

	return fn(ctx, console.New(router, store, console.NewGuild(), os.Stdout, logging.Component(log, "console")))
}
