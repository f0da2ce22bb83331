// Package notify polls YouTube channel feeds and posts a templated message
// for every new video into the guild channels that follow them.
package notify

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/jobmgr"
	"github.com/keshon/guild-dispatch/pkg/retrylimit"
	"github.com/keshon/guild-dispatch/pkg/util"
)

// JobName identifies the polling job in the job manager.
const JobName = "youtube-feeds"

// Sender posts text into a Discord channel.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

type Config struct {
	// BaseURL serves /feeds/videos.xml, normally https://www.youtube.com.
	BaseURL  string
	Interval time.Duration
	// Workers bounds concurrent feed requests.
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
	// RequestsPerSecond is the starting feed request rate; it adapts
	// between 1 and 5 times this value.
	RequestsPerSecond float64
	Client            *http.Client
	Logger            zerolog.Logger
	Now               func() time.Time
}

// Notifier owns the subscription set and polls it.
type Notifier struct {
	cfg     Config
	store   *storage.Storage
	sender  Sender
	subs    *Subscriptions
	limiter *retrylimit.AdaptiveLimiter
}

func New(store *storage.Storage, sender Sender, cfg Config) *Notifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.youtube.com"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RequestsPerSecond < 1 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rps := rate.Limit(cfg.RequestsPerSecond)
	return &Notifier{
		cfg:     cfg,
		store:   store,
		sender:  sender,
		subs:    NewSubscriptions(),
		limiter: retrylimit.NewAdaptiveLimiter(rps, 1, 5*rps, 1, 0.5),
	}
}

// Subscriptions exposes the polled set.
func (n *Notifier) Subscriptions() *Subscriptions { return n.subs }

// SyncFromStorage subscribes to every channel a guild follows.
func (n *Notifier) SyncFromStorage() error {
	ids, err := n.store.SubscribedChannels()
	if err != nil {
		return err
	}
	for _, id := range ids {
		n.subs.Add(id)
	}
	n.cfg.Logger.Info().Int("channels", len(ids)).Msg("feed subscriptions loaded")
	return nil
}

// Subscribe checks that the channel has a readable feed, starts polling it
// and returns the publish time of its newest video, or now for an empty
// channel.
func (n *Notifier) Subscribe(ctx context.Context, youtubeID string) (time.Time, error) {
	feed, err := n.fetch(ctx, youtubeID)
	if err != nil {
		return time.Time{}, err
	}
	n.subs.Add(youtubeID)

	if t := feed.latest(); !t.IsZero() {
		return t, nil
	}
	return n.cfg.Now(), nil
}

// Unsubscribe stops polling youtubeID.
func (n *Notifier) Unsubscribe(youtubeID string) {
	n.subs.Remove(youtubeID)
}

// ChannelURL is the public page of a YouTube channel.
func (n *Notifier) ChannelURL(youtubeID string) string {
	return "https://www.youtube.com/channel/" + url.PathEscape(youtubeID)
}

// Run polls every Interval as a job of jobs until the job is stopped.
func (n *Notifier) Run(jobs *jobmgr.Manager) error {
	return jobs.Every(JobName, n.cfg.Interval, n.Poll)
}

// Poll checks every subscribed channel once. Feed and send failures are
// logged; only cancellation is returned.
func (n *Notifier) Poll(ctx context.Context) error {
	ids := n.subs.List()
	if len(ids) == 0 {
		return nil
	}
	return util.Parallel(ctx, ids, n.cfg.Workers, n.check)
}

func (n *Notifier) check(ctx context.Context, youtubeID string) error {
	log := n.cfg.Logger.With().Str("youtube_id", youtubeID).Logger()

	rows, err := n.store.NotificationsFor(youtubeID)
	if err != nil {
		log.Error().Err(err).Msg("load notifications")
		return nil
	}
	if len(rows) == 0 {
		n.subs.Remove(youtubeID)
		log.Debug().Msg("no guild follows the channel anymore")
		return nil
	}

	feed, err := n.fetch(ctx, youtubeID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("fetch feed")
		return nil
	}

	entries := feed.oldestFirst()
	for _, row := range rows {
		last := row.LastVideo
		for _, e := range entries {
			if !e.Published.After(last) {
				continue
			}
			text := locale.FormatNamed(row.Text, feed.values(e))
			if err := n.sender.Send(ctx, row.ChannelID, text); err != nil {
				// Later videos wait too, so the next poll resends in order.
				log.Warn().Err(err).Str("guild", row.GuildID).Str("channel", row.ChannelID).Msg("send notification")
				break
			}
			log.Info().Str("guild", row.GuildID).Str("video", e.URL()).Msg("notification sent")
			last = e.Published
		}
		if !last.After(row.LastVideo) {
			continue
		}
		if err := n.store.SetLastVideo(row.GuildID, youtubeID, last); err != nil {
			log.Error().Err(err).Str("guild", row.GuildID).Msg("save last video")
		}
	}
	return nil
}

func (n *Notifier) fetch(ctx context.Context, youtubeID string) (*atomFeed, error) {
	u := n.cfg.BaseURL + "/feeds/videos.xml?channel_id=" + url.QueryEscape(youtubeID)

	retry := retrylimit.DefaultRetryConfig()
	retry.MaxAttempts = n.cfg.MaxAttempts
	retry.InitialDelay = n.cfg.RetryDelay
	retry.Logger = n.cfg.Logger

	var feed atomFeed
	err := retrylimit.WithRetryConfig(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return retrylimit.Fatal(err)
		}
		resp, err := n.cfg.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := retrylimit.CheckResponse(resp); err != nil {
			return err
		}
		feed = atomFeed{}
		if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
			return retrylimit.Fatal(fmt.Errorf("decode feed: %w", err))
		}
		return nil
	}, n.limiter, retry)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", youtubeID, err)
	}
	return &feed, nil
}
