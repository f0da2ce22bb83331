package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/jobmgr"
)

const feedTpl = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
 <title>Chan</title>
 <author>
  <name>Chan</name>
  <uri>https://www.youtube.com/channel/UC1</uri>
 </author>
%s
</feed>`

const entryTpl = ` <entry>
  <yt:videoId>%[1]s</yt:videoId>
  <title>Video %[1]s</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=%[1]s"/>
  <published>%[2]s</published>
 </entry>`

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func feedXML(videos ...time.Time) string {
	var entries []string
	for i, p := range videos {
		entries = append(entries, fmt.Sprintf(entryTpl, fmt.Sprint("v", i), p.Format(time.RFC3339)))
	}
	return fmt.Sprintf(feedTpl, strings.Join(entries, "\n"))
}

type sent struct {
	Channel string
	Text    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	// down makes sends to these channels fail.
	down map[string]bool
}

var errChannelDown = errors.New("channel unavailable")

func (f *fakeSender) Send(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down[channelID] {
		return errChannelDown
	}
	f.sent = append(f.sent, sent{channelID, text})
	return nil
}

func (f *fakeSender) setDown(channelID string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down == nil {
		f.down = map[string]bool{}
	}
	f.down[channelID] = down
}

func (f *fakeSender) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

// feedServer serves feeds[channel_id]; unknown channels get a 404.
type feedServer struct {
	mu     sync.Mutex
	feeds  map[string]string
	status map[string][]int
	hits   atomic.Int32
}

func (s *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	if r.URL.Path != "/feeds/videos.xml" {
		http.NotFound(w, r)
		return
	}
	id := r.URL.Query().Get("channel_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if codes := s.status[id]; len(codes) > 0 {
		s.status[id] = codes[1:]
		w.WriteHeader(codes[0])
		return
	}
	body, ok := s.feeds[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml")
	fmt.Fprint(w, body)
}

func (s *feedServer) set(id, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[id] = body
}

type fixture struct {
	store  *storage.Storage
	sender *fakeSender
	server *feedServer
	n      *Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "store.json"), storage.Settings{Prefix: "!", Locale: "en"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs := &feedServer{feeds: map[string]string{}, status: map[string][]int{}}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	sender := &fakeSender{}
	n := New(store, sender, Config{
		BaseURL:           srv.URL,
		Interval:          20 * time.Millisecond,
		RetryDelay:        time.Millisecond,
		RequestsPerSecond: 1000,
		Client:            srv.Client(),
		Logger:            zerolog.Nop(),
		Now:               func() time.Time { return t0 },
	})
	return &fixture{store: store, sender: sender, server: fs, n: n}
}

func (f *fixture) follow(t *testing.T, guild, youtubeID, channel, text string, last time.Time) {
	t.Helper()
	require.NoError(t, f.store.SetNotification(storage.YouTubeNotification{
		GuildID: guild, YouTubeID: youtubeID, ChannelID: channel, Text: text, LastVideo: last,
	}))
	f.n.Subscriptions().Add(youtubeID)
}

func TestPollSendsOnlyNewerVideos(t *testing.T) {
	f := newFixture(t)
	f.server.set("UC1", feedXML(t0.Add(2*time.Hour), t0.Add(-time.Hour), t0.Add(time.Hour)))
	f.follow(t, "g1", "UC1", "c1", "{author-name}: {video-title} {video-url}", t0)
	f.follow(t, "g2", "UC1", "c2", "new {video-title}", t0.Add(90*time.Minute))

	require.NoError(t, f.n.Poll(context.Background()))

	want := []sent{
		{"c1", "Chan: Video v2 https://www.youtube.com/watch?v=v2"},
		{"c1", "Chan: Video v0 https://www.youtube.com/watch?v=v0"},
		{"c2", "new Video v0"},
	}
	if diff := cmp.Diff(want, f.sender.all()); diff != "" {
		t.Errorf("sent (-want +got):\n%s", diff)
	}

	rows, err := f.store.NotificationsFor("UC1")
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.LastVideo.Equal(t0.Add(2*time.Hour)), "guild %s last video %s", r.GuildID, r.LastVideo)
	}

	require.NoError(t, f.n.Poll(context.Background()))
	assert.Len(t, f.sender.all(), 3, "a second poll sends nothing new")
}

func TestPollRetriesUndeliveredRows(t *testing.T) {
	f := newFixture(t)
	f.server.set("UC1", feedXML(t0.Add(time.Hour), t0.Add(2*time.Hour)))
	f.follow(t, "g1", "UC1", "c1", "{video-title}", t0)
	f.follow(t, "g2", "UC1", "c2", "{video-title}", t0)
	f.sender.setDown("c2", true)

	require.NoError(t, f.n.Poll(context.Background()))
	assert.Equal(t, []sent{{"c1", "Video v0"}, {"c1", "Video v1"}}, f.sender.all())

	last := map[string]time.Time{}
	rows, err := f.store.NotificationsFor("UC1")
	require.NoError(t, err)
	for _, r := range rows {
		last[r.GuildID] = r.LastVideo
	}
	assert.True(t, last["g1"].Equal(t0.Add(2*time.Hour)))
	assert.True(t, last["g2"].Equal(t0), "a failed row keeps its timestamp")

	f.sender.setDown("c2", false)
	require.NoError(t, f.n.Poll(context.Background()))
	assert.Equal(t, []sent{{"c1", "Video v0"}, {"c1", "Video v1"}, {"c2", "Video v0"}, {"c2", "Video v1"}}, f.sender.all())
}

func TestPollDropsUnfollowedChannels(t *testing.T) {
	f := newFixture(t)
	f.n.Subscriptions().Add("UCgone")

	require.NoError(t, f.n.Poll(context.Background()))
	assert.False(t, f.n.Subscriptions().Has("UCgone"))
	assert.Zero(t, f.server.hits.Load(), "no feed is fetched for a channel nobody follows")
}

func TestPollKeepsGoingOnFeedErrors(t *testing.T) {
	f := newFixture(t)
	f.server.set("UC2", feedXML(t0.Add(time.Hour)))
	f.follow(t, "g1", "UCmissing", "c1", "x", t0)
	f.follow(t, "g1", "UC2", "c2", "{video-title}", t0)

	require.NoError(t, f.n.Poll(context.Background()))
	assert.Equal(t, []sent{{"c2", "Video v0"}}, f.sender.all())
	assert.True(t, f.n.Subscriptions().Has("UCmissing"))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	f := newFixture(t)
	f.server.set("UC1", feedXML(t0.Add(time.Hour)))
	f.server.status["UC1"] = []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}

	last, err := f.n.Subscribe(context.Background(), "UC1")
	require.NoError(t, err)
	assert.True(t, last.Equal(t0.Add(time.Hour)))
	assert.Equal(t, int32(3), f.server.hits.Load())
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	f.server.set("UCempty", feedXML())

	last, err := f.n.Subscribe(context.Background(), "UCempty")
	require.NoError(t, err)
	assert.Equal(t, t0, last)
	assert.True(t, f.n.Subscriptions().Has("UCempty"))

	_, err = f.n.Subscribe(context.Background(), "UCnope")
	assert.Error(t, err)
	assert.False(t, f.n.Subscriptions().Has("UCnope"))
	assert.Equal(t, int32(2), f.server.hits.Load(), "a 404 is not retried")

	f.n.Unsubscribe("UCempty")
	assert.Empty(t, f.n.Subscriptions().List())
}

func TestSyncFromStorage(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"UCb", "UCa"} {
		require.NoError(t, f.store.SetNotification(storage.YouTubeNotification{GuildID: "g", YouTubeID: id, ChannelID: "c"}))
	}
	require.NoError(t, f.n.SyncFromStorage())
	assert.Equal(t, []string{"UCa", "UCb"}, f.n.Subscriptions().List())
}

func TestChannelURL(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "https://www.youtube.com/channel/UC%2Fx", f.n.ChannelURL("UC/x"))
}

func TestRunPollsAsJob(t *testing.T) {
	f := newFixture(t)
	f.server.set("UC1", feedXML(t0.Add(time.Hour)))
	f.follow(t, "g1", "UC1", "c1", "{video-title}", t0)

	jobs := jobmgr.NewManager(context.Background(), zerolog.Nop())
	require.NoError(t, f.n.Run(jobs))
	assert.ErrorIs(t, f.n.Run(jobs), jobmgr.ErrRunning)

	require.Eventually(t, func() bool { return len(f.sender.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	f.server.set("UC1", feedXML(t0.Add(time.Hour), t0.Add(2*time.Hour)))
	require.Eventually(t, func() bool { return len(f.sender.all()) == 2 }, 2*time.Second, 10*time.Millisecond)

	jobs.StopAll()
	assert.Equal(t, []sent{{"c1", "Video v0"}, {"c1", "Video v1"}}, f.sender.all())
}
