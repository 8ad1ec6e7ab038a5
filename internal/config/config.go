package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Cache struct {
		URL string // empty disables the resolve cache
	}
	RateLimit struct {
		Window time.Duration
		Max    int
	}
	// BaseURL is the public origin short URLs are minted under, e.g.
	// https://wisp.link. Its hostname also feeds the self-reference guard.
	BaseURL       string
	TTLDays       int
	SlugLength    int
	SweepInterval time.Duration
	StoreTimeout  time.Duration
}

// Hostname returns the hostname part of BaseURL.
func (c *Config) Hostname() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// TTL returns the link lifetime as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// Load reads config from environment (WISP_ prefix) and optional wisp.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WISP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("wisp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("ttl_days", 7)
	v.SetDefault("slug_length", 8)
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.max", 10)
	v.SetDefault("sweep.interval", "1h")
	v.SetDefault("store_timeout", "5s")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Cache.URL = v.GetString("cache.url")
	cfg.BaseURL = strings.TrimRight(v.GetString("base_url"), "/")
	cfg.TTLDays = v.GetInt("ttl_days")
	cfg.SlugLength = v.GetInt("slug_length")
	cfg.RateLimit.Max = v.GetInt("ratelimit.max")

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return nil, fmt.Errorf("invalid WISP_RATELIMIT_WINDOW: %w", err)
	}
	cfg.RateLimit.Window = window

	sweep, err := time.ParseDuration(v.GetString("sweep.interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid WISP_SWEEP_INTERVAL: %w", err)
	}
	cfg.SweepInterval = sweep

	storeTimeout, err := time.ParseDuration(v.GetString("store_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid WISP_STORE_TIMEOUT: %w", err)
	}
	cfg.StoreTimeout = storeTimeout

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("WISP_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("WISP_DB_DSN is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("WISP_BASE_URL is required (public origin, e.g. https://wisp.link)")
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("WISP_BASE_URL must be an absolute URL, got %q", cfg.BaseURL)
	}
	if cfg.TTLDays < 1 || cfg.TTLDays > 30 {
		return nil, fmt.Errorf("WISP_TTL_DAYS must be between 1 and 30, got %d", cfg.TTLDays)
	}
	if cfg.SlugLength < 4 || cfg.SlugLength > 20 {
		return nil, fmt.Errorf("WISP_SLUG_LENGTH must be between 4 and 20, got %d", cfg.SlugLength)
	}
	if cfg.RateLimit.Max < 1 {
		return nil, fmt.Errorf("WISP_RATELIMIT_MAX must be positive, got %d", cfg.RateLimit.Max)
	}

	return cfg, nil
}
