package cmd

import (
	"context"
	"fmt"
	"strings"
)

const (
	permAdmin          int64 = 1 << 3
	permManageGuild    int64 = 1 << 5
	permManageMessages int64 = 1 << 13
	permManageRoles    int64 = 1 << 28
)

var testScheme = PermissionScheme{
	Administrator: permAdmin,
	Keys: map[int64]string{
		permAdmin:          "ADMINISTRATOR",
		permManageGuild:    "MANAGE_GUILD",
		permManageMessages: "MANAGE_MESSAGES",
		permManageRoles:    "MANAGE_ROLES",
	},
}

// fakeLocale resolves dotted paths from a flat map, mirroring the layout of
// the real bundles: common.*, commands.<name>.*, commands.<name>.commands.*.
type fakeLocale struct {
	path    string
	strings map[string]string
}

func newFakeLocale(strings map[string]string) *fakeLocale {
	return &fakeLocale{strings: strings}
}

func (l *fakeLocale) full(key string) string {
	if l.path == "" {
		return key
	}
	return l.path + "." + key
}

func (l *fakeLocale) exists(prefix string) bool {
	for k := range l.strings {
		if strings.HasPrefix(k, prefix+".") {
			return true
		}
	}
	return false
}

func (l *fakeLocale) Lookup(key string) (string, bool) {
	s, ok := l.strings[l.full(key)]
	return s, ok
}

func (l *fakeLocale) Get(key string) string {
	if s, ok := l.Lookup(key); ok {
		return s
	}
	return l.full(key)
}

func (l *fakeLocale) GetFormatted(key string, args ...any) string {
	return format(l.Get(key), args)
}

func (l *fakeLocale) GetCommon(key string) string {
	if s, ok := l.strings["common."+key]; ok {
		return s
	}
	return "common." + key
}

func (l *fakeLocale) GetCommonFormatted(key string, args ...any) string {
	return format(l.GetCommon(key), args)
}

func (l *fakeLocale) GetSubLocale(path string, allowMissing bool) Locale {
	p := l.full(path)
	if path == "common" || strings.HasPrefix(path, "common.") {
		p = path
	}
	if allowMissing && !l.exists(p) {
		return nil
	}
	return &fakeLocale{path: p, strings: l.strings}
}

func (l *fakeLocale) GetCommandLocale(name string, allowMissing bool) Locale {
	p := l.full("commands." + name)
	if allowMissing && !l.exists(p) {
		return nil
	}
	return &fakeLocale{path: p, strings: l.strings}
}

func format(s string, args []any) string {
	for i, a := range args {
		s = strings.ReplaceAll(s, fmt.Sprintf("{%d}", i), fmt.Sprint(a))
	}
	return s
}

type fakeMessage struct {
	content  string
	channel  string
	perms    map[Scope]int64
	permErr  error
	replyErr error
	replies  []string
}

func (m *fakeMessage) Content() string     { return m.content }
func (m *fakeMessage) ChannelName() string { return m.channel }

func (m *fakeMessage) Reply(_ context.Context, text string) error {
	if m.replyErr != nil {
		return m.replyErr
	}
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessage) MemberPermissions(_ context.Context, scope Scope) (int64, error) {
	if m.permErr != nil {
		return 0, m.permErr
	}
	return m.perms[scope], nil
}

type guildConfig bool

func (g guildConfig) Shortcuts() bool { return bool(g) }

var commonStrings = map[string]string{
	"common.listSeparator":             ", ",
	"common.noGuildPerms":              "missing guild permissions: {0}",
	"common.noChannelPerms":            "missing permissions in #{1}: {0}",
	"common.noSubcommand":              "no such subcommand",
	"common.missingArg":                "missing {0} at {1}",
	"common.wrongArgType":              "bad {0} at {1}, want {2}",
	"common.permissions.ADMINISTRATOR": "Administrator",
	"common.permissions.MANAGE_ROLES":  "Manage Roles",
	"common.argumentTypes.user":        "user",
	"common.argumentTypes.role":        "role",
	"common.argumentTypes.number":      "number",
}

func newInvocation(msg *fakeMessage, shortcuts bool) *Invocation {
	return &Invocation{
		Message: msg,
		Guild:   guildConfig(shortcuts),
		Locale:  newFakeLocale(commonStrings),
	}
}
