package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/guild-dispatch/internal/bot"
	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/config"
	"github.com/keshon/guild-dispatch/internal/discord"
	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/internal/logging"
	"github.com/keshon/guild-dispatch/internal/middleware"
	"github.com/keshon/guild-dispatch/internal/notify"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
	"github.com/keshon/guild-dispatch/pkg/jobmgr"
)

func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: cfg.Development})
	if err != nil {
		boot.Fatal().Err(err).Msg("logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("bot stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Msg("starting Discord bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	env := &commands.Env{
		Storage:     store,
		Languages:   bundle,
		Registry:    cmd.DefaultRegistry,
		DeveloperID: cfg.DeveloperID,
	}
	router := bot.NewRouter(bot.Deps{
		Storage:       store,
		Bundle:        bundle,
		Env:           env,
		Registry:      cmd.DefaultRegistry,
		Scheme:        discord.Scheme,
		Middleware:    []cmd.Middleware{middleware.CommandLog(store, logging.Component(log, "commands"), time.Now)},
		RatePerSecond: cfg.RateLimitPerSecond,
		Burst:         cfg.RateLimitBurst,
		Logger:        logging.Component(log, "router"),
	})

	b, err := discord.New(cfg.DiscordToken, router, logging.Component(log, "discord"))
	if err != nil {
		return err
	}

	notifier := notify.New(store, discord.Sender{Session: b.Session()}, notify.Config{
		BaseURL:  cfg.FeedBaseURL,
		Interval: cfg.FeedPollInterval,
		Logger:   logging.Component(log, "notify"),
	})
	if err := notifier.SyncFromStorage(); err != nil {
		return err
	}
	env.Feeds = notifier
	env.Latency = b.Latency

	g, ctx := errgroup.WithContext(ctx)
	jobs := jobmgr.NewManager(ctx, logging.Component(log, "jobs"))
	defer jobs.StopAll()

	g.Go(func() error { return b.Run(ctx) })
	g.Go(func() error { return ignoreCanceled(router.Run(ctx)) })
	g.Go(func() error { return notifier.Run(jobs) })
	if cfg.LocaleDir != "" {
		g.Go(func() error {
			return ignoreCanceled(bundle.Watch(ctx, cfg.LocaleDir, logging.Component(log, "locale")))
		})
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
