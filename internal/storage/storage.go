package storage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/guild-dispatch/datastore"
)

const commandHistoryLimit = 20

// Storage keeps one Record per guild, keyed by guild ID.
type Storage struct {
	ds       *datastore.DataStore
	defaults Settings
}

// Record is everything stored for a guild.
type Record struct {
	Settings Settings `json:"settings"`
	// RoleManagers maps a manager role to the roles its holders may hand out.
	RoleManagers    map[string][]string            `json:"role_managers,omitempty"`
	YouTube         map[string]YouTubeNotification `json:"youtube,omitempty"`
	CommandsHistory []CommandHistoryRecord         `json:"cmd_history,omitempty"`
}

// CommandHistoryRecord describes one executed command.
type CommandHistoryRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param"`
	Datetime    time.Time `json:"datetime"`
}

// New opens the datastore at filePath. defaults fill the settings of
// guilds that never changed them.
func New(filePath string, defaults Settings, log zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = log
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Storage{ds: ds, defaults: defaults}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush writes pending changes to disk.
func (s *Storage) Flush() error {
	return s.ds.SaveToFile()
}

// record loads the guild's record. A guild without one gets the default
// settings.
func (s *Storage) record(guildID string) (*Record, error) {
	var r Record
	found, err := s.ds.Get(guildID, &r)
	if err != nil {
		return nil, err
	}
	if !found {
		r.Settings = s.defaults
	}
	return &r, nil
}

// update applies fn to the guild's record under the store lock. A record
// created here starts from the default settings.
func (s *Storage) update(guildID string, fn func(r *Record) error) error {
	var r Record
	return s.ds.Update(guildID, &r, func(exists bool) error {
		if !exists {
			r.Settings = s.defaults
		}
		return fn(&r)
	})
}

func (s *Storage) guildIDs() []string {
	return s.ds.Keys()
}
