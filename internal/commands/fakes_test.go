package commands

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

const (
	guildID   = "100"
	channelID = "200"
	authorID  = "300"
)

var errRoleEdit = errors.New("missing access")

// fakeGuild is the guild state a fakeMessage reads and edits.
type fakeGuild struct {
	roles    map[string]string
	channels map[string]string
	members  map[string][]string
	failEdit bool
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{
		roles: map[string]string{
			"10": "Mods",
			"11": "Red",
			"12": "Blue",
			"13": "Green",
		},
		channels: map[string]string{channelID: "general", "201": "roles", "202": "news"},
		members:  map[string][]string{authorID: nil, "400": nil},
	}
}

type fakeMessage struct {
	guild   *fakeGuild
	channel string
	perms   int64
	held    []string
	replies []string
}

func (m *fakeMessage) Content() string     { return "" }
func (m *fakeMessage) ChannelName() string { return m.guild.channels[m.channel] }
func (m *fakeMessage) GuildID() string     { return guildID }
func (m *fakeMessage) ChannelID() string   { return m.channel }
func (m *fakeMessage) AuthorID() string    { return authorID }
func (m *fakeMessage) AuthorName() string  { return "author" }

func (m *fakeMessage) Reply(_ context.Context, text string) error {
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessage) MemberPermissions(context.Context, cmd.Scope) (int64, error) {
	return m.perms, nil
}

func (m *fakeMessage) AuthorRoles(context.Context) ([]string, error) {
	return m.held, nil
}

func (m *fakeMessage) Role(_ context.Context, id string) (Role, bool, error) {
	name, ok := m.guild.roles[id]
	return Role{ID: id, Name: name}, ok, nil
}

func (m *fakeMessage) Channel(_ context.Context, id string) (Channel, bool, error) {
	name, ok := m.guild.channels[id]
	return Channel{ID: id, Name: name}, ok, nil
}

func (m *fakeMessage) HasMember(_ context.Context, userID string) (bool, error) {
	_, ok := m.guild.members[userID]
	return ok, nil
}

func (m *fakeMessage) AddMemberRole(_ context.Context, userID, roleID, _ string) error {
	if m.guild.failEdit {
		return errRoleEdit
	}
	if !slices.Contains(m.guild.members[userID], roleID) {
		m.guild.members[userID] = append(m.guild.members[userID], roleID)
	}
	return nil
}

func (m *fakeMessage) RemoveMemberRole(_ context.Context, userID, roleID, _ string) error {
	if m.guild.failEdit {
		return errRoleEdit
	}
	m.guild.members[userID] = slices.DeleteFunc(m.guild.members[userID], func(r string) bool { return r == roleID })
	return nil
}

type guildSettings bool

func (g guildSettings) Shortcuts() bool { return bool(g) }

type fakeFeeds struct {
	last time.Time
	err  error
	got  []string
}

func (f *fakeFeeds) Subscribe(_ context.Context, id string) (time.Time, error) {
	f.got = append(f.got, id)
	return f.last, f.err
}

func (f *fakeFeeds) ChannelURL(id string) string { return "https://yt/" + id }

var testScheme = cmd.PermissionScheme{
	Administrator: discordgo.PermissionAdministrator,
	Keys: map[int64]string{
		discordgo.PermissionAdministrator: "administrator",
		discordgo.PermissionManageGuild:   "manageGuild",
	},
}

// harness runs text through the registered commands as a member of a fake
// guild.
type harness struct {
	t      *testing.T
	env    *Env
	bundle *locale.Bundle
	guild  *fakeGuild
	feeds  *fakeFeeds
	disp   *cmd.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"), storage.Settings{Prefix: "!", Locale: "en"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bundle, err := locale.NewBundle("en")
	require.NoError(t, err)

	feeds := &fakeFeeds{last: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	return &harness{
		t:      t,
		env:    &Env{Storage: store, Feeds: feeds, Languages: bundle, Registry: cmd.DefaultRegistry, DeveloperID: "999"},
		bundle: bundle,
		guild:  newFakeGuild(),
		feeds:  feeds,
		disp:   cmd.DefaultRegistry.Dispatcher(testScheme),
	}
}

func (h *harness) member(perms int64, held ...string) *fakeMessage {
	return &fakeMessage{guild: h.guild, channel: channelID, perms: perms, held: held}
}

func (h *harness) admin() *fakeMessage {
	return h.member(discordgo.PermissionAdministrator)
}

// run dispatches text and returns the replies it produced.
func (h *harness) run(msg *fakeMessage, text string) []string {
	h.t.Helper()
	settings, err := h.env.Storage.Settings(guildID)
	require.NoError(h.t, err)

	msg.replies = nil
	inv := &cmd.Invocation{
		Message: msg,
		Guild:   guildSettings(settings.Shortcuts),
		Locale:  h.bundle.Locale(settings.Locale),
		Data:    h.env,
	}
	outcome, err := h.disp.Dispatch(context.Background(), inv, cmd.Tokenize(text))
	require.NoError(h.t, err)
	require.Equal(h.t, cmd.Handled, outcome, "no command matched %q", text)
	return msg.replies
}

// one is run for commands that reply exactly once.
func (h *harness) one(msg *fakeMessage, text string) string {
	h.t.Helper()
	replies := h.run(msg, text)
	require.Len(h.t, replies, 1)
	return replies[0]
}
