// Package console runs commands against an in-memory guild from a terminal,
// through the same router the Discord bot uses.
package console

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

const (
	GuildID   = "1"
	ChannelID = "2"
	AuthorID  = "3"
)

// Guild is a local stand-in for a Discord guild. The console author is an
// administrator and a member of it.
type Guild struct {
	mu       sync.Mutex
	roles    map[string]string
	channels map[string]string
	members  map[string][]string
}

// NewGuild seeds a guild with a few roles, channels and members to play with.
func NewGuild() *Guild {
	return &Guild{
		roles: map[string]string{
			"10": "Moderators",
			"11": "Red",
			"12": "Green",
			"13": "Blue",
		},
		channels: map[string]string{ChannelID: "console", "20": "general", "21": "announcements"},
		members:  map[string][]string{AuthorID: nil, "30": nil, "31": nil},
	}
}

// MemberRoles returns a copy of the roles held by userID.
func (g *Guild) MemberRoles(userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.members[userID])
}

// Describe prints the seeded objects so their IDs can be typed in.
func (g *Guild) Describe(w io.Writer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, section := range []struct {
		title string
		items map[string]string
	}{{"roles", g.roles}, {"channels", g.channels}} {
		fmt.Fprintf(w, "%s:\n", section.title)
		for _, id := range sortedKeys(section.items) {
			fmt.Fprintf(w, "  %s  %s\n", id, section.items[id])
		}
	}
	fmt.Fprintf(w, "members:\n")
	for _, id := range sortedKeys(g.members) {
		fmt.Fprintf(w, "  %s  roles %v\n", id, g.members[id])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Message is one line typed into the console.
type Message struct {
	guild   *Guild
	content string
	out     io.Writer
}

var _ commands.GuildMessage = (*Message)(nil)

func (m *Message) Content() string    { return m.content }
func (m *Message) GuildID() string    { return GuildID }
func (m *Message) ChannelID() string  { return ChannelID }
func (m *Message) AuthorID() string   { return AuthorID }
func (m *Message) AuthorName() string { return "console" }

func (m *Message) ChannelName() string {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	return m.guild.channels[ChannelID]
}

func (m *Message) Reply(_ context.Context, text string) error {
	_, err := fmt.Fprintln(m.out, text)
	return err
}

// MemberPermissions grants everything: the console user owns the guild.
func (m *Message) MemberPermissions(context.Context, cmd.Scope) (int64, error) {
	return ^int64(0), nil
}

func (m *Message) AuthorRoles(context.Context) ([]string, error) {
	return m.guild.MemberRoles(AuthorID), nil
}

func (m *Message) Role(_ context.Context, id string) (commands.Role, bool, error) {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	name, ok := m.guild.roles[id]
	return commands.Role{ID: id, Name: name}, ok, nil
}

func (m *Message) Channel(_ context.Context, id string) (commands.Channel, bool, error) {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	name, ok := m.guild.channels[id]
	return commands.Channel{ID: id, Name: name}, ok, nil
}

func (m *Message) HasMember(_ context.Context, userID string) (bool, error) {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	_, ok := m.guild.members[userID]
	return ok, nil
}

func (m *Message) AddMemberRole(_ context.Context, userID, roleID, _ string) error {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	if !slices.Contains(m.guild.members[userID], roleID) {
		m.guild.members[userID] = append(m.guild.members[userID], roleID)
		slices.Sort(m.guild.members[userID])
	}
	return nil
}

func (m *Message) RemoveMemberRole(_ context.Context, userID, roleID, _ string) error {
	m.guild.mu.Lock()
	defer m.guild.mu.Unlock()
	m.guild.members[userID] = slices.DeleteFunc(m.guild.members[userID], func(r string) bool { return r == roleID })
	return nil
}
