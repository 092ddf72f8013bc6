// Package config defines the crossarb configuration and its validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration. Fields come from a TOML file and are then
// optionally overridden by CROSSARB_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Refresh    RefreshConfig    `toml:"refresh"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig configures venue A discovery and pricing.
type PolymarketConfig struct {
	GammaHost         string `toml:"gamma_host"`
	ClobHost          string `toml:"clob_host"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	MaxMarkets        int    `toml:"max_markets"`
	PriceBatchSize    int    `toml:"price_batch_size"`
	Tag               string `toml:"tag"`
}

// KalshiConfig configures venue B traversal. An empty Series list means the
// built-in single-game list plus whatever the include flags add.
type KalshiConfig struct {
	BaseURL           string   `toml:"base_url"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
	Series            []string `toml:"series"`
	IncludeProps      bool     `toml:"include_props"`
	IncludeFutures    bool     `toml:"include_futures"`
	ExpiryWindow      duration `toml:"expiry_window"`
	MaxMarkets        int      `toml:"max_markets"`
}

// MatcherConfig tunes market matching.
type MatcherConfig struct {
	Threshold         float64 `toml:"threshold"`
	DateToleranceDays int     `toml:"date_tolerance_days"`
}

// ArbitrageConfig sets the detector thresholds and venue fee rates.
type ArbitrageConfig struct {
	MinPriceDifferencePercent float64 `toml:"min_price_difference_percent"`
	PolymarketFee             float64 `toml:"polymarket_fee"`
	KalshiFee                 float64 `toml:"kalshi_fee"`
	SuspiciousProfitPercent   float64 `toml:"suspicious_profit_percent"`
}

// RefreshConfig controls the refresh cycle. A zero Interval means refreshes
// only happen on request.
type RefreshConfig struct {
	Interval    duration `toml:"interval"`
	StaleAfter  duration `toml:"stale_after"`
	HTTPTimeout duration `toml:"http_timeout"`
	LockTTL     duration `toml:"lock_ttl"`
}

// RedisConfig enables the shared limiter, refresh lock, cache and bus.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// PostgresConfig enables the latest-snapshot table.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	MaxConns      int    `toml:"max_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config enables the latest-snapshot object.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Key            string `toml:"key"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled           bool     `toml:"enabled"`
	Port              int      `toml:"port"`
	CORSOrigins       []string `toml:"cors_origins"`
	APIKey            string   `toml:"api_key"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

// NotifyConfig holds alert channel credentials.
type NotifyConfig struct {
	TelegramToken     string  `toml:"telegram_token"`
	TelegramChatID    string  `toml:"telegram_chat_id"`
	DiscordWebhookURL string  `toml:"discord_webhook_url"`
	MinProfitBps      float64 `toml:"min_profit_bps"`
}

// duration wraps time.Duration so TOML strings like "5m" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with every default filled in. Optional backends
// are disabled.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:         "https://gamma-api.polymarket.com",
			ClobHost:          "https://clob.polymarket.com",
			RequestsPerMinute: 60,
			MaxMarkets:        500,
			PriceBatchSize:    20,
		},
		Kalshi: KalshiConfig{
			BaseURL:           "https://api.elections.kalshi.com/trade-api/v2",
			RequestsPerMinute: 10,
			ExpiryWindow:      duration{48 * time.Hour},
			MaxMarkets:        1000,
		},
		Matcher: MatcherConfig{
			Threshold:         0.75,
			DateToleranceDays: 1,
		},
		Arbitrage: ArbitrageConfig{
			MinPriceDifferencePercent: 2.0,
			PolymarketFee:             0.02,
			KalshiFee:                 0.01,
			SuspiciousProfitPercent:   15.0,
		},
		Refresh: RefreshConfig{
			StaleAfter:  duration{5 * time.Minute},
			HTTPTimeout: duration{30 * time.Second},
			LockTTL:     duration{2 * time.Minute},
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			PoolSize:    10,
			MaxRetries:  3,
			SnapshotTTL: duration{30 * time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "crossarb",
			User:          "crossarb",
			SSLMode:       "disable",
			MaxConns:      4,
			RunMigrations: true,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
			Key:    "snapshots/latest.json",
		},
		Server: ServerConfig{
			Enabled:           true,
			Port:              8000,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Notify: NotifyConfig{
			MinProfitBps: 100,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{"server": true, "scan": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid or missing value at once.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if !validModes[strings.ToLower(c.Mode)] {
		add("unknown mode %q (valid: server, scan)", c.Mode)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		add("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.Polymarket.GammaHost == "" || c.Polymarket.ClobHost == "" {
		add("polymarket: gamma_host and clob_host must not be empty")
	}
	if c.Polymarket.RequestsPerMinute < 1 {
		add("polymarket: requests_per_minute must be >= 1")
	}
	if c.Polymarket.MaxMarkets < 1 {
		add("polymarket: max_markets must be >= 1")
	}
	if c.Polymarket.PriceBatchSize < 1 {
		add("polymarket: price_batch_size must be >= 1")
	}

	if c.Kalshi.BaseURL == "" {
		add("kalshi: base_url must not be empty")
	}
	if c.Kalshi.RequestsPerMinute < 1 {
		add("kalshi: requests_per_minute must be >= 1")
	}
	if c.Kalshi.MaxMarkets < 1 {
		add("kalshi: max_markets must be >= 1")
	}
	if c.Kalshi.ExpiryWindow.Duration <= 0 {
		add("kalshi: expiry_window must be > 0")
	}

	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		add("matcher: threshold must be in (0, 1], got %v", c.Matcher.Threshold)
	}
	if c.Matcher.DateToleranceDays < 0 {
		add("matcher: date_tolerance_days must be >= 0")
	}

	if c.Arbitrage.MinPriceDifferencePercent < 0 {
		add("arbitrage: min_price_difference_percent must be >= 0")
	}
	for name, fee := range map[string]float64{"polymarket_fee": c.Arbitrage.PolymarketFee, "kalshi_fee": c.Arbitrage.KalshiFee} {
		if fee < 0 || fee >= 1 {
			add("arbitrage: %s must be in [0, 1), got %v", name, fee)
		}
	}
	if c.Arbitrage.SuspiciousProfitPercent <= 0 {
		add("arbitrage: suspicious_profit_percent must be > 0")
	}

	if c.Refresh.Interval.Duration < 0 {
		add("refresh: interval must be >= 0")
	}
	if c.Refresh.StaleAfter.Duration <= 0 {
		add("refresh: stale_after must be > 0")
	}
	if c.Refresh.HTTPTimeout.Duration <= 0 {
		add("refresh: http_timeout must be > 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			add("redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			add("redis: pool_size must be >= 1")
		}
	}
	if c.Postgres.Enabled && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			add("postgres: host and database must be set when enabled (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			add("postgres: port must be 1-65535, got %d", c.Postgres.Port)
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" || c.S3.Region == "" {
			add("s3: bucket and region must be set when enabled")
		}
	}

	if c.Server.Enabled || strings.EqualFold(c.Mode, "server") {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server: port must be 1-65535, got %d", c.Server.Port)
		}
		if c.Server.RequestsPerSecond < 0 {
			add("server: requests_per_second must be >= 0")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		add("notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
