package bot

import (
	"github.com/caarlos0/env/v11"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`
	LogConfig
}

// LogConfig holds the logging settings. It is loaded on its own by commands
// that do not connect to Discord.
type LogConfig struct {
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadLogConfig loads only the logging settings.
func LoadLogConfig() (*LogConfig, error) {
	cfg := &LogConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
