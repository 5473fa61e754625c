package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skygrow/skygrow/internal/adapters/bluesky"
)

// Config is the resolved runtime configuration for skygrow.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	AppViewURL           string
	OAuthClientID        string
	OAuthClientSecretJWK string

	HTTPTimeout   time.Duration
	SweepInterval time.Duration
	LockTTL       time.Duration

	MaxFollowsPerDay    int
	MaxUnfollowsPerDay  int
	UnfollowDelayDays   int
	MaxFollowAttempts   int
	MaxUnfollowAttempts int
	InterRequestDelay   time.Duration

	FollowBackBatchSize   int
	FollowerPagesPerCheck int
	FollowersPageSize     int
	FollowListScanLimit   int
	SetupPageCap          int

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Bluesky struct {
		AppViewURL           string `yaml:"appview_url"`
		OAuthClientID        string `yaml:"oauth_client_id"`
		OAuthClientSecretJWK string `yaml:"oauth_client_secret_jwk"`
	} `yaml:"bluesky"`
	Campaign struct {
		MaxFollowsPerDay    int `yaml:"max_follows_per_day"`
		MaxUnfollowsPerDay  int `yaml:"max_unfollows_per_day"`
		UnfollowDelayDays   int `yaml:"unfollow_delay_days"`
		MaxFollowAttempts   int `yaml:"max_follow_attempts"`
		MaxUnfollowAttempts int `yaml:"max_unfollow_attempts"`
	} `yaml:"campaign"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "skygrow",
		HTTPPort:              8080,
		AppViewURL:            bluesky.DefaultAppViewURL,
		HTTPTimeout:           30 * time.Second,
		SweepInterval:         24 * time.Hour,
		LockTTL:               30 * time.Minute,
		MaxFollowsPerDay:      5,
		MaxUnfollowsPerDay:    10,
		UnfollowDelayDays:     5,
		MaxFollowAttempts:     3,
		MaxUnfollowAttempts:   2,
		InterRequestDelay:     2 * time.Second,
		FollowBackBatchSize:   20,
		FollowerPagesPerCheck: 3,
		FollowersPageSize:     100,
		FollowListScanLimit:   100,
		SetupPageCap:          1000,
		MaxDBConns:            20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Bluesky.AppViewURL != "" {
			cfg.AppViewURL = f.Bluesky.AppViewURL
		}
		if f.Bluesky.OAuthClientID != "" {
			cfg.OAuthClientID = f.Bluesky.OAuthClientID
		}
		if f.Bluesky.OAuthClientSecretJWK != "" {
			cfg.OAuthClientSecretJWK = f.Bluesky.OAuthClientSecretJWK
		}
		if f.Campaign.MaxFollowsPerDay > 0 {
			cfg.MaxFollowsPerDay = f.Campaign.MaxFollowsPerDay
		}
		if f.Campaign.MaxUnfollowsPerDay > 0 {
			cfg.MaxUnfollowsPerDay = f.Campaign.MaxUnfollowsPerDay
		}
		if f.Campaign.UnfollowDelayDays > 0 {
			cfg.UnfollowDelayDays = f.Campaign.UnfollowDelayDays
		}
		if f.Campaign.MaxFollowAttempts > 0 {
			cfg.MaxFollowAttempts = f.Campaign.MaxFollowAttempts
		}
		if f.Campaign.MaxUnfollowAttempts > 0 {
			cfg.MaxUnfollowAttempts = f.Campaign.MaxUnfollowAttempts
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AppViewURL = envOrDefault("BLUESKY_APPVIEW_URL", cfg.AppViewURL)
	cfg.OAuthClientID = envOrDefault("OAUTH_CLIENT_ID", cfg.OAuthClientID)
	cfg.OAuthClientSecretJWK = envOrDefault("OAUTH_CLIENT_SECRET_JWK", cfg.OAuthClientSecretJWK)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.MaxFollowsPerDay = envInt("MAX_FOLLOWS_PER_DAY", cfg.MaxFollowsPerDay)
	cfg.MaxUnfollowsPerDay = envInt("MAX_UNFOLLOWS_PER_DAY", cfg.MaxUnfollowsPerDay)
	cfg.UnfollowDelayDays = envInt("UNFOLLOW_DELAY_DAYS", cfg.UnfollowDelayDays)
	cfg.MaxFollowAttempts = envInt("MAX_FOLLOW_ATTEMPTS", cfg.MaxFollowAttempts)
	cfg.MaxUnfollowAttempts = envInt("MAX_UNFOLLOW_ATTEMPTS", cfg.MaxUnfollowAttempts)

	cfg.HTTPTimeout = time.Duration(envInt("HTTP_TIMEOUT_SECONDS", int(cfg.HTTPTimeout.Seconds()))) * time.Second
	cfg.InterRequestDelay = time.Duration(envInt("INTER_REQUEST_DELAY_SECONDS", int(cfg.InterRequestDelay.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(envInt("SWEEP_INTERVAL_HOURS", int(cfg.SweepInterval.Hours()))) * time.Hour
	cfg.LockTTL = time.Duration(envInt("CAMPAIGN_LOCK_TTL_MINUTES", int(cfg.LockTTL.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.OAuthClientID == "" {
		return Config{}, fmt.Errorf("missing OAUTH_CLIENT_ID")
	}
	if cfg.OAuthClientSecretJWK == "" {
		return Config{}, fmt.Errorf("missing OAUTH_CLIENT_SECRET_JWK")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
