package storage

import (
	"sort"
	"time"
)

// YouTubeNotification posts Text into ChannelID whenever the YouTube channel
// publishes a video newer than LastVideo.
type YouTubeNotification struct {
	GuildID   string    `json:"guild_id"`
	YouTubeID string    `json:"youtube_id"`
	ChannelID string    `json:"channel_id"`
	Text      string    `json:"text"`
	LastVideo time.Time `json:"last_video"`
}

// SetNotification creates or replaces the guild's notification for a
// YouTube channel.
func (s *Storage) SetNotification(n YouTubeNotification) error {
	return s.update(n.GuildID, func(r *Record) error {
		if r.YouTube == nil {
			r.YouTube = make(map[string]YouTubeNotification)
		}
		r.YouTube[n.YouTubeID] = n
		return nil
	})
}

// RemoveNotification deletes the guild's notification for youtubeID and
// reports whether it existed.
func (s *Storage) RemoveNotification(guildID, youtubeID string) (bool, error) {
	var found bool
	err := s.update(guildID, func(r *Record) error {
		_, found = r.YouTube[youtubeID]
		delete(r.YouTube, youtubeID)
		return nil
	})
	return found, err
}

// GuildNotifications lists the guild's notifications ordered by YouTube ID.
func (s *Storage) GuildNotifications(guildID string) ([]YouTubeNotification, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return sortedNotifications(r.YouTube), nil
}

// NotificationsFor lists every guild's notification for youtubeID.
func (s *Storage) NotificationsFor(youtubeID string) ([]YouTubeNotification, error) {
	var out []YouTubeNotification
	for _, id := range s.guildIDs() {
		r, err := s.record(id)
		if err != nil {
			return nil, err
		}
		if n, ok := r.YouTube[youtubeID]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// SubscribedChannels returns the distinct YouTube IDs any guild follows.
func (s *Storage) SubscribedChannels() ([]string, error) {
	seen := make(map[string]struct{})
	for _, id := range s.guildIDs() {
		r, err := s.record(id)
		if err != nil {
			return nil, err
		}
		for yt := range r.YouTube {
			seen[yt] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for yt := range seen {
		out = append(out, yt)
	}
	sort.Strings(out)
	return out, nil
}

// SetLastVideo advances LastVideo of the guild's notification for
// youtubeID to t. Older times and missing rows are ignored.
func (s *Storage) SetLastVideo(guildID, youtubeID string, t time.Time) error {
	r, err := s.record(guildID)
	if err != nil {
		return err
	}
	if n, ok := r.YouTube[youtubeID]; !ok || !n.LastVideo.Before(t) {
		return nil
	}
	return s.update(guildID, func(r *Record) error {
		n, ok := r.YouTube[youtubeID]
		if !ok || !n.LastVideo.Before(t) {
			return nil
		}
		n.LastVideo = t
		r.YouTube[youtubeID] = n
		return nil
	})
}

func sortedNotifications(m map[string]YouTubeNotification) []YouTubeNotification {
	out := make([]YouTubeNotification, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YouTubeID < out[j].YouTubeID })
	return out
}
