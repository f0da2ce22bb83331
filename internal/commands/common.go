// Package commands declares the bot's command tree. Every file registers its
// root command into cmd.DefaultRegistry from init; handlers reach storage and
// other collaborators through the *Env carried in Invocation.Data.
package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

var (
	ErrNoEnv      = errors.New("invocation carries no command environment")
	ErrNotInGuild = errors.New("message was not sent in a guild")
)

// Role and Channel are the guild objects commands display.
type Role struct {
	ID   string
	Name string
}

type Channel struct {
	ID   string
	Name string
}

// GuildMessage is the guild-aware message the built-in commands need on top
// of cmd.Message.
type GuildMessage interface {
	cmd.Message
	GuildID() string
	ChannelID() string
	AuthorID() string
	AuthorName() string
	AuthorRoles(ctx context.Context) ([]string, error)
	Role(ctx context.Context, id string) (Role, bool, error)
	Channel(ctx context.Context, id string) (Channel, bool, error)
	HasMember(ctx context.Context, userID string) (bool, error)
	AddMemberRole(ctx context.Context, userID, roleID, reason string) error
	RemoveMemberRole(ctx context.Context, userID, roleID, reason string) error
}

// FeedSubscriber follows YouTube channels for the youtube command.
type FeedSubscriber interface {
	// Subscribe starts following a channel and returns the publish time of
	// its latest video.
	Subscribe(ctx context.Context, youtubeID string) (time.Time, error)
	ChannelURL(youtubeID string) string
}

// Languages lists the locales a guild may switch to.
type Languages interface {
	Tags() []string
	Has(tag string) bool
}

// Env is shared by every invocation of one bot process.
type Env struct {
	Storage     *storage.Storage
	Feeds       FeedSubscriber
	Languages   Languages
	Registry    *cmd.Registry
	DeveloperID string
	// Latency reports the gateway heartbeat latency, if known.
	Latency func() time.Duration
}

func session(inv *cmd.Invocation) (*Env, GuildMessage, error) {
	env, ok := inv.Data.(*Env)
	if !ok || env == nil {
		return nil, nil, ErrNoEnv
	}
	msg, ok := inv.Message.(GuildMessage)
	if !ok {
		return nil, nil, ErrNotInGuild
	}
	return env, msg, nil
}

func reply(ctx context.Context, inv *cmd.Invocation, text string) error {
	return inv.Message.Reply(ctx, text)
}

// isAdmin reports whether the author holds Administrator or is the bot
// developer.
func isAdmin(ctx context.Context, env *Env, msg GuildMessage) (bool, error) {
	if env.DeveloperID != "" && msg.AuthorID() == env.DeveloperID {
		return true, nil
	}
	perms, err := msg.MemberPermissions(ctx, cmd.ScopeGuild)
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

// roleName resolves a role for display, falling back to common.unknownRole.
func roleName(ctx context.Context, inv *cmd.Invocation, msg GuildMessage, id string) (string, error) {
	r, ok, err := msg.Role(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return inv.Locale.GetCommon("unknownRole"), nil
	}
	return r.Name, nil
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

// strs converts a variadic argument slot to strings.
func strs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func rootLocale(l cmd.Locale) cmd.Locale {
	if r, ok := l.(interface{ Root() cmd.Locale }); ok {
		return r.Root()
	}
	return l
}
