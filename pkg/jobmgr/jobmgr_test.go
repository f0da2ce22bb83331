package jobmgr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAsyncAndStop(t *testing.T) {
	m := NewManager(context.Background(), zerolog.Nop())
	started := make(chan struct{})

	require.NoError(t, m.StartAsync("poll", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	assert.Equal(t, []string{"poll"}, m.List())
	assert.Equal(t, "Running jobs: poll", m.Status())
	assert.ErrorIs(t, m.StartAsync("poll", func(context.Context) error { return nil }), ErrRunning)

	require.NoError(t, m.Stop("poll"))
	assert.Empty(t, m.List())
	assert.Equal(t, "No jobs are running.", m.Status())
	assert.ErrorIs(t, m.Stop("poll"), ErrNotRunning)
}

func TestStartSync(t *testing.T) {
	m := NewManager(context.Background(), zerolog.Nop())
	boom := errors.New("boom")

	err := m.StartSync("once", func(context.Context) error {
		assert.Equal(t, []string{"once"}, m.List())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.List())
}

func TestEvery(t *testing.T) {
	m := NewManager(context.Background(), zerolog.Nop())
	var ticks atomic.Int32

	require.NoError(t, m.Every("tick", time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return errors.New("logged, not fatal")
	}))
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	m.StopAll()
	assert.Empty(t, m.List())
	assert.Error(t, m.Every("bad", 0, func(context.Context) error { return nil }))
}

func TestParentContextCancelsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx, zerolog.Nop())

	require.NoError(t, m.StartAsync("wait", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	cancel()
	m.StopAll()
	assert.Empty(t, m.List())
}
