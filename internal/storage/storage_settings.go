package storage

import "slices"

// Settings is the per-guild configuration.
type Settings struct {
	Prefix    string `json:"prefix,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Shortcuts bool   `json:"shortcuts"`
	// RoleAccessChannels lists the channels where role commands are
	// forbidden, or the only ones where they are allowed when
	// RoleAccessWhitelist is set.
	RoleAccessChannels  []string `json:"role_access_channels,omitempty"`
	RoleAccessWhitelist bool     `json:"role_access_whitelist"`
}

// RoleAccessAllowed reports whether role commands may run in channelID.
func (s Settings) RoleAccessAllowed(channelID string) bool {
	listed := slices.Contains(s.RoleAccessChannels, channelID)
	if s.RoleAccessWhitelist {
		return listed
	}
	return !listed
}

func (s Settings) withDefaults(d Settings) Settings {
	if s.Prefix == "" {
		s.Prefix = d.Prefix
	}
	if s.Locale == "" {
		s.Locale = d.Locale
	}
	return s
}

// Settings returns the guild's settings with defaults applied.
func (s *Storage) Settings(guildID string) (Settings, error) {
	r, err := s.record(guildID)
	if err != nil {
		return Settings{}, err
	}
	return r.Settings.withDefaults(s.defaults), nil
}

// UpdateSettings changes the guild's settings and returns the result.
func (s *Storage) UpdateSettings(guildID string, fn func(*Settings)) (Settings, error) {
	var out Settings
	err := s.update(guildID, func(r *Record) error {
		fn(&r.Settings)
		out = r.Settings
		return nil
	})
	return out.withDefaults(s.defaults), err
}
