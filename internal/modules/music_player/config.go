package music_player

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Playback backends.
const (
	BackendLocal    = "local"
	BackendLavalink = "lavalink"
)

// ErrMissingLavalinkConfig is returned when the lavalink backend is selected without a node.
var ErrMissingLavalinkConfig = errors.New(
	"LAVALINK_ADDRESS and LAVALINK_PASSWORD are required for the lavalink backend",
)

// Config holds the music player module configuration.
type Config struct {
	// Without a key, searches fail and only URLs can be played.
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`

	PlayerBackend string `env:"PLAYER_BACKEND" envDefault:"local"`

	LavalinkAddress  string `env:"LAVALINK_ADDRESS"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"`

	SearchCacheTTL  time.Duration `env:"SEARCH_CACHE_TTL"  envDefault:"6h"`
	SearchCacheSize int           `env:"SEARCH_CACHE_SIZE" envDefault:"1024"`
	SearchRateLimit float64       `env:"SEARCH_RATE_LIMIT" envDefault:"5"`
	SearchBurst     int           `env:"SEARCH_BURST"      envDefault:"10"`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	OpusBitrate int    `env:"OPUS_BITRATE" envDefault:"96000"`
}

// LoadConfig loads the module configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PlayerBackend {
	case BackendLocal:
	case BackendLavalink:
		if c.LavalinkAddress == "" || c.LavalinkPassword == "" {
			return ErrMissingLavalinkConfig
		}
	default:
		return fmt.Errorf("unknown PLAYER_BACKEND %q: must be %q or %q",
			c.PlayerBackend, BackendLocal, BackendLavalink)
	}

	if c.SearchCacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive, got %s", c.SearchCacheTTL)
	}

	return nil
}
