package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNoToken is returned by Validate when the bot has no Discord token.
var ErrNoToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DeveloperID  string `env:"DEVELOPER_ID"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	DefaultPrefix string `env:"DEFAULT_PREFIX" envDefault:"!"`
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`
	LocaleDir     string `env:"LOCALE_DIR"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	Development bool   `env:"DEVELOPMENT"`

	FeedPollInterval time.Duration `env:"FEED_POLL_INTERVAL" envDefault:"5m"`
	FeedBaseURL      string        `env:"FEED_BASE_URL" envDefault:"https://www.youtube.com"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"1"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"3"`
}

// Load reads an optional .env file into the environment and parses Config
// from it. Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks what the Discord bot needs; the console runs without it.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrNoToken
	}
	if c.FeedPollInterval <= 0 {
		return fmt.Errorf("FEED_POLL_INTERVAL must be positive, got %s", c.FeedPollInterval)
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
