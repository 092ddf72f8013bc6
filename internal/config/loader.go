package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over Defaults, loads .env if present and
// applies CROSSARB_* overrides. An empty path skips the file. The result is
// not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "CROSSARB_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "CROSSARB_POLYMARKET_CLOB_HOST")
	setInt(&cfg.Polymarket.RequestsPerMinute, "CROSSARB_POLYMARKET_REQUESTS_PER_MINUTE")
	setInt(&cfg.Polymarket.MaxMarkets, "CROSSARB_POLYMARKET_MAX_MARKETS")
	setInt(&cfg.Polymarket.PriceBatchSize, "CROSSARB_POLYMARKET_PRICE_BATCH_SIZE")
	setStr(&cfg.Polymarket.Tag, "CROSSARB_POLYMARKET_TAG")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "CROSSARB_KALSHI_BASE_URL")
	setInt(&cfg.Kalshi.RequestsPerMinute, "CROSSARB_KALSHI_REQUESTS_PER_MINUTE")
	setStringSlice(&cfg.Kalshi.Series, "CROSSARB_KALSHI_SERIES")
	setBool(&cfg.Kalshi.IncludeProps, "CROSSARB_KALSHI_INCLUDE_PROPS")
	setBool(&cfg.Kalshi.IncludeFutures, "CROSSARB_KALSHI_INCLUDE_FUTURES")
	setDuration(&cfg.Kalshi.ExpiryWindow, "CROSSARB_KALSHI_EXPIRY_WINDOW")
	setInt(&cfg.Kalshi.MaxMarkets, "CROSSARB_KALSHI_MAX_MARKETS")

	// ── Matcher / arbitrage ──
	setFloat64(&cfg.Matcher.Threshold, "CROSSARB_MATCHER_THRESHOLD")
	setInt(&cfg.Matcher.DateToleranceDays, "CROSSARB_MATCHER_DATE_TOLERANCE_DAYS")
	setFloat64(&cfg.Arbitrage.MinPriceDifferencePercent, "CROSSARB_ARBITRAGE_MIN_PRICE_DIFFERENCE_PERCENT")
	setFloat64(&cfg.Arbitrage.PolymarketFee, "CROSSARB_ARBITRAGE_POLYMARKET_FEE")
	setFloat64(&cfg.Arbitrage.KalshiFee, "CROSSARB_ARBITRAGE_KALSHI_FEE")
	setFloat64(&cfg.Arbitrage.SuspiciousProfitPercent, "CROSSARB_ARBITRAGE_SUSPICIOUS_PROFIT_PERCENT")

	// ── Refresh ──
	setDuration(&cfg.Refresh.Interval, "CROSSARB_REFRESH_INTERVAL")
	setDuration(&cfg.Refresh.StaleAfter, "CROSSARB_REFRESH_STALE_AFTER")
	setDuration(&cfg.Refresh.HTTPTimeout, "CROSSARB_REFRESH_HTTP_TIMEOUT")
	setDuration(&cfg.Refresh.LockTTL, "CROSSARB_REFRESH_LOCK_TTL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "CROSSARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "CROSSARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CROSSARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CROSSARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CROSSARB_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "CROSSARB_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "CROSSARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "CROSSARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CROSSARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CROSSARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CROSSARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CROSSARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CROSSARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CROSSARB_POSTGRES_SSL_MODE")
	setBool(&cfg.Postgres.RunMigrations, "CROSSARB_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CROSSARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CROSSARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CROSSARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "CROSSARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CROSSARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CROSSARB_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "CROSSARB_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CROSSARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CROSSARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CROSSARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "CROSSARB_SERVER_API_KEY")
	setFloat64(&cfg.Server.RequestsPerSecond, "CROSSARB_SERVER_REQUESTS_PER_SECOND")
	setInt(&cfg.Server.Burst, "CROSSARB_SERVER_BURST")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CROSSARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CROSSARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CROSSARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setFloat64(&cfg.Notify.MinProfitBps, "CROSSARB_NOTIFY_MIN_PROFIT_BPS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CROSSARB_MODE")
	setStr(&cfg.LogLevel, "CROSSARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the variable is
// present, non-empty and parses.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
