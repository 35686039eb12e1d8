// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// YouTube platform access.
	YouTubeClientID     string `env:"YOUTUBE_CLIENT_ID,required"`
	YouTubeClientSecret string `env:"YOUTUBE_CLIENT_SECRET,required"`
	SelfHandle          string `env:"YOUTUBE_HANDLE,required"`
	TokenPath           string `env:"YOUTUBE_TOKEN_PATH" envDefault:"./tokens.json"`
	OAuthCallbackPort   int    `env:"OAUTH_CALLBACK_PORT" envDefault:"3000"`

	// External channel list, one channel id per line.
	ChannelListPath string `env:"CHANNEL_LIST_PATH" envDefault:"./channels.txt"`

	// LLM access. An empty or "mock" key selects the deterministic mock client.
	LLMAPIKey    string `env:"LLM_API_KEY,required"`
	LLMBaseURL   string `env:"LLM_BASE_URL"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"o3-mini"`
	RateLimitRPS int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`

	// Rescan tiers.
	HotInterval    time.Duration `env:"HOT_INTERVAL" envDefault:"10m"`
	MediumInterval time.Duration `env:"MEDIUM_INTERVAL" envDefault:"1h"`
	ColdInterval   time.Duration `env:"COLD_INTERVAL" envDefault:"24h"`

	// Bucket age cutoffs: younger than HotAgeCutoff is hot, younger than
	// MediumAgeCutoff is medium, everything else cold.
	HotAgeCutoff    time.Duration `env:"HOT_AGE_CUTOFF" envDefault:"168h"`
	MediumAgeCutoff time.Duration `env:"MEDIUM_AGE_CUTOFF" envDefault:"720h"`

	// Video discovery bounds: never backfill past DiscoveryLookback or more
	// than DiscoveryMaxPages playlist pages per channel.
	DiscoveryLookback time.Duration `env:"DISCOVERY_LOOKBACK" envDefault:"8760h"`
	DiscoveryMaxPages int           `env:"DISCOVERY_MAX_PAGES" envDefault:"4"`

	// Comment scans never look back further than this, even with a stale or
	// missing watermark.
	ScanMinLookback time.Duration `env:"SCAN_MIN_LOOKBACK" envDefault:"720h"`

	// Context gathering: aggregate same-author comments within this window of
	// the most recent one, capped at ContextMaxChars cumulative characters.
	ContextWindow   time.Duration `env:"CONTEXT_WINDOW" envDefault:"24h"`
	ContextMaxChars int           `env:"CONTEXT_MAX_CHARS" envDefault:"800"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.SelfHandle, "@") {
		return fmt.Errorf("YOUTUBE_HANDLE must start with '@', got %q", c.SelfHandle)
	}

	if c.HotInterval <= 0 || c.MediumInterval <= 0 || c.ColdInterval <= 0 {
		return fmt.Errorf("tier intervals must be positive")
	}

	if c.HotAgeCutoff >= c.MediumAgeCutoff {
		return fmt.Errorf("HOT_AGE_CUTOFF must be below MEDIUM_AGE_CUTOFF")
	}

	return nil
}
