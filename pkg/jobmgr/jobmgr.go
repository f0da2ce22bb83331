// Package jobmgr runs named background jobs that can be listed and
// cancelled. It carries no retry or persistence logic.
//
//	jm := jobmgr.NewManager(ctx, log)
//	_ = jm.Every("youtube-feed", 5*time.Minute, notifier.Poll)
//	defer jm.StopAll()
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrRunning    = errors.New("job is already running")
	ErrNotRunning = errors.New("job is not running")
)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks running jobs by name. It is safe for concurrent use.
type Manager struct {
	ctx  context.Context
	log  zerolog.Logger
	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager returns a manager whose jobs are cancelled when ctx is done.
func NewManager(ctx context.Context, log zerolog.Logger) *Manager {
	return &Manager{
		ctx:  ctx,
		log:  log,
		jobs: make(map[string]*job),
	}
}

// StartSync runs runner in the calling goroutine. The job is listed while it
// runs and is cancelled by Stop like any other.
func (m *Manager) StartSync(name string, runner func(ctx context.Context) error) error {
	j, ctx, err := m.add(name)
	if err != nil {
		return err
	}
	defer m.finish(name, j)
	return m.run(ctx, name, runner)
}

// StartAsync runs runner in its own goroutine and returns immediately.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	j, ctx, err := m.add(name)
	if err != nil {
		return err
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.finish(name, j)
		_ = m.run(ctx, name, runner)
	}()
	return nil
}

// Every starts an async job calling fn immediately and then once per
// interval. Errors from fn are logged and do not stop the job.
func (m *Manager) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	return m.StartAsync(name, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				m.log.Error().Err(err).Str("job", name).Msg("tick failed")
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
}

// Stop cancels a job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job and waits for the async ones to return.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status summarizes running jobs for humans.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

func (m *Manager) add(name string) (*job, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunning, name)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	return j, ctx, nil
}

func (m *Manager) finish(name string, j *job) {
	j.cancel()
	m.mu.Lock()
	if m.jobs[name] == j {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	close(j.done)
}

func (m *Manager) run(ctx context.Context, name string, runner func(context.Context) error) error {
	m.log.Debug().Str("job", name).Msg("running")
	err := runner(ctx)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		m.log.Error().Err(err).Str("job", name).Msg("job failed")
	default:
		m.log.Debug().Str("job", name).Msg("job done")
	}
	return err
}
