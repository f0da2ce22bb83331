// Package discord connects the command router to a Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/guild-dispatch/internal/bot"
)

const handleTimeout = 30 * time.Second

// Bot owns the discordgo session and feeds guild messages to the router.
type Bot struct {
	dg     *discordgo.Session
	router *bot.Router
	log    zerolog.Logger
	ctx    context.Context
}

// New creates the session without connecting it.
func New(token string, router *bot.Router, log zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{dg: dg, router: router, log: log, ctx: context.Background()}
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	return b, nil
}

// Session exposes the underlying session, e.g. for a Sender.
func (b *Bot) Session() *discordgo.Session { return b.dg }

// Latency is the last gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration { return b.dg.HeartbeatLatency() }

// Run connects and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()

	botID := ""
	if s.State.User != nil {
		botID = s.State.User.ID
	}
	if _, err := b.router.Handle(ctx, newMessage(s, m.Message), botID); err != nil {
		b.log.Debug().Err(err).Str("message", m.ID).Msg("message handling failed")
	}
}

// Sender posts notifier messages through the bot's session.
type Sender struct {
	Session *discordgo.Session
}

func (s Sender) Send(ctx context.Context, channelID, text string) error {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := s.Session.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}
