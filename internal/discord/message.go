package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

const maxMessageLength = 2000

// message adapts a guild MessageCreate event to commands.GuildMessage.
type message struct {
	s      *discordgo.Session
	m      *discordgo.Message
	member *discordgo.Member
}

var _ commands.GuildMessage = (*message)(nil)

func newMessage(s *discordgo.Session, m *discordgo.Message) *message {
	return &message{s: s, m: m, member: m.Member}
}

func (msg *message) Content() string   { return msg.m.Content }
func (msg *message) GuildID() string   { return msg.m.GuildID }
func (msg *message) ChannelID() string { return msg.m.ChannelID }
func (msg *message) AuthorID() string  { return msg.m.Author.ID }

func (msg *message) AuthorName() string {
	if msg.member != nil && msg.member.Nick != "" {
		return msg.member.Nick
	}
	return msg.m.Author.Username
}

func (msg *message) ChannelName() string {
	if c, err := msg.s.State.Channel(msg.m.ChannelID); err == nil {
		return c.Name
	}
	return msg.m.ChannelID
}

// Reply answers the message, split into as many messages as Discord's
// length limit requires.
func (msg *message) Reply(ctx context.Context, text string) error {
	for i, part := range splitMessage(text, maxMessageLength) {
		var err error
		if i == 0 {
			_, err = msg.s.ChannelMessageSendReply(msg.m.ChannelID, part, msg.m.Reference(), discordgo.WithContext(ctx))
		} else {
			_, err = msg.s.ChannelMessageSend(msg.m.ChannelID, part, discordgo.WithContext(ctx))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (msg *message) MemberPermissions(ctx context.Context, scope cmd.Scope) (int64, error) {
	if scope == cmd.ScopeChannel {
		return msg.s.UserChannelPermissions(msg.AuthorID(), msg.m.ChannelID, discordgo.WithContext(ctx))
	}

	guild, err := msg.s.State.Guild(msg.m.GuildID)
	if err != nil {
		if guild, err = msg.s.Guild(msg.m.GuildID, discordgo.WithContext(ctx)); err != nil {
			return 0, err
		}
	}
	roles, err := msg.AuthorRoles(ctx)
	if err != nil {
		return 0, err
	}
	return GuildPermissions(guild, msg.AuthorID(), roles), nil
}

func (msg *message) AuthorRoles(ctx context.Context) ([]string, error) {
	if msg.member == nil {
		m, err := msg.s.GuildMember(msg.m.GuildID, msg.AuthorID(), discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		msg.member = m
	}
	return msg.member.Roles, nil
}

func (msg *message) Role(ctx context.Context, id string) (commands.Role, bool, error) {
	if r, err := msg.s.State.Role(msg.m.GuildID, id); err == nil {
		return commands.Role{ID: r.ID, Name: r.Name}, true, nil
	}
	roles, err := msg.s.GuildRoles(msg.m.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return commands.Role{}, false, err
	}
	for _, r := range roles {
		if r.ID == id {
			return commands.Role{ID: r.ID, Name: r.Name}, true, nil
		}
	}
	return commands.Role{}, false, nil
}

func (msg *message) Channel(ctx context.Context, id string) (commands.Channel, bool, error) {
	c, err := msg.s.State.Channel(id)
	if err != nil {
		c, err = msg.s.Channel(id, discordgo.WithContext(ctx))
		if isNotFound(err) {
			return commands.Channel{}, false, nil
		}
		if err != nil {
			return commands.Channel{}, false, err
		}
	}
	if c.GuildID != msg.m.GuildID {
		return commands.Channel{}, false, nil
	}
	return commands.Channel{ID: c.ID, Name: c.Name}, true, nil
}

func (msg *message) HasMember(ctx context.Context, userID string) (bool, error) {
	if _, err := msg.s.State.Member(msg.m.GuildID, userID); err == nil {
		return true, nil
	}
	_, err := msg.s.GuildMember(msg.m.GuildID, userID, discordgo.WithContext(ctx))
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (msg *message) AddMemberRole(ctx context.Context, userID, roleID, reason string) error {
	return msg.s.GuildMemberRoleAdd(msg.m.GuildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (msg *message) RemoveMemberRole(ctx context.Context, userID, roleID, reason string) error {
	return msg.s.GuildMemberRoleRemove(msg.m.GuildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func isNotFound(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

// splitMessage cuts text into parts of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) <= limit {
			cur.WriteString(line)
			continue
		}
		flush()
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		cur.WriteString(line)
	}
	flush()
	return parts
}
