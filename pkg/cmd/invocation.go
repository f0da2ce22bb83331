// Package cmd provides a transport-agnostic command tree engine: commands are
// plain values with optional gating, subcommands, typed arguments and a
// handler. How messages arrive and how replies leave (Discord, console) is
// defined by adapters that implement Message, GuildConfig and Locale.
package cmd

import "context"

// Scope selects where a permission requirement is evaluated.
type Scope int

const (
	// ScopeGuild checks the member's permissions in the whole guild.
	ScopeGuild Scope = iota
	// ScopeChannel checks the member's permissions in the invoking channel.
	ScopeChannel
)

func (s Scope) String() string {
	switch s {
	case ScopeGuild:
		return "guild"
	case ScopeChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// Message is the inbound message as seen by the engine.
type Message interface {
	// Content is the raw text body.
	Content() string
	// Reply sends text back to the originating message.
	Reply(ctx context.Context, text string) error
	// MemberPermissions returns the author's permission bits in the given scope.
	MemberPermissions(ctx context.Context, scope Scope) (int64, error)
	// ChannelName is used in channel-scoped permission replies.
	ChannelName() string
}

// GuildConfig is the read-only per-guild configuration the engine consults.
type GuildConfig interface {
	Shortcuts() bool
}

// Locale resolves keys to localized text. Keys and sub-locale paths are
// relative to the locale's own path, except GetCommon keys and GetSubLocale
// paths under "common", which resolve from the root of the language. The
// engine relies on this for common.permissions and common.argumentTypes
// while holding a nested command locale. Implementations must return an
// untyped nil from GetSubLocale and GetCommandLocale when allowMissing is set
// and nothing exists at the requested path.
type Locale interface {
	Get(key string) string
	Lookup(key string) (string, bool)
	GetFormatted(key string, args ...any) string
	GetCommon(key string) string
	GetCommonFormatted(key string, args ...any) string
	GetSubLocale(path string, allowMissing bool) Locale
	GetCommandLocale(name string, allowMissing bool) Locale
}

// Invocation carries everything a guard or handler may need. Adapters set
// Data to their own context (e.g. the discordgo session and event).
type Invocation struct {
	Message Message
	Guild   GuildConfig
	// Locale must not be nil; every engine reply is resolved through it.
	Locale Locale
	// Path holds the names of the matched commands, root first.
	Path []string
	Data any
}

// descend returns a copy of inv narrowed to the matched command.
func (inv *Invocation) descend(name string, l Locale) *Invocation {
	next := *inv
	next.Path = append(append(make([]string, 0, len(inv.Path)+1), inv.Path...), name)
	next.Locale = l
	return &next
}
