package middleware

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

type message struct {
	commands.GuildMessage
}

func (message) GuildID() string     { return "g1" }
func (message) ChannelID() string   { return "c1" }
func (message) ChannelName() string { return "general" }
func (message) AuthorID() string    { return "u1" }
func (message) AuthorName() string  { return "alice" }

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want string
	}{
		{"none", nil, ""},
		{"scalars", []any{"400", 2.5, true}, "400 2.5 true"},
		{"variadic", []any{"400", []any{"11", "12"}}, "400 11 12"},
		{"empty variadic", []any{"x", []any{}}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatArgs(tt.args))
		})
	}
}

func TestCommandLog(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "s.json"), storage.Settings{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var buf bytes.Buffer
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mw := CommandLog(store, zerolog.New(&buf), func() time.Time { return at })

	boom := errors.New("boom")
	h := mw(func(context.Context, *cmd.Invocation, []any) error { return boom })
	inv := &cmd.Invocation{Message: message{}, Path: []string{"role", "add"}}

	err = h(context.Background(), inv, []any{"400", []any{"11"}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), `"command":"role add"`)
	assert.Contains(t, buf.String(), `"level":"error"`)

	history, err := store.CommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, storage.CommandHistoryRecord{
		ChannelID:   "c1",
		ChannelName: "general",
		UserID:      "u1",
		Username:    "alice",
		Command:     "role add",
		Param:       "400 11",
		Datetime:    at,
	}, history[0])
}
