package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Meta struct {
	AppID           string
	AppSecret       string
	GraphBaseURL    string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPTimeout     time.Duration
}

type Jobs struct {
	CronEnabled     bool
	ScanSchedule    string
	RefreshSchedule string
	ScanLookback    time.Duration
	ClaimTTL        time.Duration
	Concurrency     int
}

type Logging struct {
	Level  string
	Format string // json or text
}

type Config struct {
	Port        string
	FrontendURL string
	PostgresURI string
	RedisURI    string
	Meta        Meta
	Jobs        Jobs
	R2          R2
	Logging     Logging
	// SecretKey seals client access tokens at rest (AES, 16/24/32 bytes).
	SecretKey  string
	JWTSecret  string
	CookieName string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("redis_uri", "localhost:6379")
	v.SetDefault("meta_graph_base_url", "https://graph.facebook.com/v21.0")
	v.SetDefault("meta_poll_interval", "3s")
	v.SetDefault("meta_max_poll_attempts", 20)
	v.SetDefault("meta_http_timeout", "30s")
	v.SetDefault("jobs_cron_enabled", false)
	v.SetDefault("jobs_scan_schedule", "@every 5m")
	v.SetDefault("jobs_refresh_schedule", "@daily")
	v.SetDefault("jobs_scan_lookback", "1h")
	v.SetDefault("jobs_claim_ttl", "10m")
	v.SetDefault("jobs_concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("cookie_name", "contentflow_session")
}

// LoadConfig reads configuration from the environment. Keys map to upper-case
// variables, e.g. meta_app_id -> META_APP_ID.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetString("port"),
		FrontendURL: v.GetString("frontend_url"),
		PostgresURI: v.GetString("postgres_uri"),
		RedisURI:    v.GetString("redis_uri"),
		Meta: Meta{
			AppID:           v.GetString("meta_app_id"),
			AppSecret:       v.GetString("meta_app_secret"),
			GraphBaseURL:    v.GetString("meta_graph_base_url"),
			PollInterval:    v.GetDuration("meta_poll_interval"),
			MaxPollAttempts: v.GetInt("meta_max_poll_attempts"),
			HTTPTimeout:     v.GetDuration("meta_http_timeout"),
		},
		Jobs: Jobs{
			CronEnabled:     v.GetBool("jobs_cron_enabled"),
			ScanSchedule:    v.GetString("jobs_scan_schedule"),
			RefreshSchedule: v.GetString("jobs_refresh_schedule"),
			ScanLookback:    v.GetDuration("jobs_scan_lookback"),
			ClaimTTL:        v.GetDuration("jobs_claim_ttl"),
			Concurrency:     v.GetInt("jobs_concurrency"),
		},
		R2: R2{
			AccountID:  v.GetString("r2_account_id"),
			AccessKey:  v.GetString("r2_access_key"),
			SecretKey:  v.GetString("r2_secret_key"),
			BucketName: v.GetString("r2_bucket_name"),
			PublicURL:  v.GetString("r2_public_url"),
		},
		Logging: Logging{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		SecretKey:  v.GetString("secret_key"),
		JWTSecret:  v.GetString("jwt_secret"),
		CookieName: v.GetString("cookie_name"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every entry point needs. Meta app credentials are
// not checked here; the token refresh job reports their absence itself.
func (c *Config) Validate() error {
	if c.PostgresURI == "" {
		return errors.New("POSTGRES_URI is required")
	}
	switch len(c.SecretKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("SECRET_KEY must be 16, 24 or 32 bytes, got %d", len(c.SecretKey))
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Meta.PollInterval <= 0 {
		return errors.New("META_POLL_INTERVAL must be positive")
	}
	if c.Meta.MaxPollAttempts < 1 {
		return errors.New("META_MAX_POLL_ATTEMPTS must be at least 1")
	}
	if c.Jobs.Concurrency < 1 {
		return errors.New("JOBS_CONCURRENCY must be at least 1")
	}
	// the lease is renewed while a publish runs, so it only has to outlive
	// a few missed renewals
	if c.Jobs.ClaimTTL < 30*time.Second {
		return errors.New("JOBS_CLAIM_TTL must be at least 30s")
	}
	if c.Jobs.ScanLookback < 0 {
		return errors.New("JOBS_SCAN_LOOKBACK cannot be negative")
	}
	return nil
}
