package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Polymarket.RequestsPerMinute)
	assert.Equal(t, 10, cfg.Kalshi.RequestsPerMinute)
	assert.Equal(t, 0.75, cfg.Matcher.Threshold)
	assert.Equal(t, 15.0, cfg.Arbitrage.SuspiciousProfitPercent)
	assert.Equal(t, 48*time.Hour, cfg.Kalshi.ExpiryWindow.Duration)
	assert.Zero(t, cfg.Refresh.Interval.Duration)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "crossarb.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "scan"

[kalshi]
series = ["KXNBAGAME", "KXNFLGAME"]
expiry_window = "24h"

[arbitrage]
kalshi_fee = 0.015

[refresh]
interval = "2m"
`), 0o600))

	t.Setenv("CROSSARB_ARBITRAGE_KALSHI_FEE", "0.03")
	t.Setenv("CROSSARB_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CROSSARB_MATCHER_THRESHOLD", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, []string{"KXNBAGAME", "KXNFLGAME"}, cfg.Kalshi.Series)
	assert.Equal(t, 24*time.Hour, cfg.Kalshi.ExpiryWindow.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Refresh.Interval.Duration)
	assert.Equal(t, 0.03, cfg.Arbitrage.KalshiFee)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 0.75, cfg.Matcher.Threshold, "unparseable overrides are ignored")
	assert.Equal(t, 0.02, cfg.Arbitrage.PolymarketFee, "untouched defaults survive")
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = "), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Matcher.Threshold = 1.5
	cfg.Arbitrage.KalshiFee = 1
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	cfg.Notify.TelegramToken = "tok"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"unknown mode", "matcher: threshold", "kalshi_fee", "redis: addr", "telegram_chat_id"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "key"
	cfg.Postgres.Password = "pw"
	cfg.Server.CORSOrigins = []string{"https://a.example"}

	out := RedactedConfig(&cfg)
	assert.Equal(t, redacted, out.Server.APIKey)
	assert.Equal(t, redacted, out.Postgres.Password)
	assert.Empty(t, out.Notify.TelegramToken, "empty secrets stay empty")
	assert.Equal(t, "key", cfg.Server.APIKey)

	out.Server.CORSOrigins[0] = "changed"
	assert.Equal(t, "https://a.example", cfg.Server.CORSOrigins[0])
}
