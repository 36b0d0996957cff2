package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/reversal_bot/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BYBIT_API_KEY", "BYBIT_API_SECRET", "LOG_LEVEL", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
exchange:
  api_key: file-key
  price_max_age: 2s
trading:
  symbol: ETHUSDT
  sizing:
    margin_mode: percent
    percent_of_balance: 0.2
    leverage: 10
    min_order_size: 0.01
    rounding_digits: 3
server:
  port: 8081
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Exchange.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Exchange.PriceMaxAge)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, domain.MarginPercentOfBalance, cfg.Trading.Sizing.MarginMode)
	assert.Equal(t, 10, cfg.Trading.Sizing.Leverage)
	assert.Equal(t, 3, cfg.Trading.Sizing.RoundingDigits)
	assert.Equal(t, 8081, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, domain.MarginIsolated, cfg.Trading.MarginType)
	assert.Equal(t, 30, cfg.Backtest.DefaultDays)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 5, cfg.Trading.Sizing.Leverage)
	assert.Equal(t, 5.0, cfg.Trading.Sizing.FixedMargin)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BYBIT_API_KEY", "env-key")
	t.Setenv("BYBIT_API_SECRET", "env-secret")
	t.Setenv("PORT", "9090")

	cfg, err := Load(writeConfig(t, "exchange:\n  api_key: file-key\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.APISecret)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_BadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty symbol", func(c *Config) { c.Trading.Symbol = "" }},
		{"zero leverage", func(c *Config) { c.Trading.Sizing.Leverage = 0 }},
		{"unknown margin type", func(c *Config) { c.Trading.MarginType = "portfolio" }},
		{"unknown margin mode", func(c *Config) { c.Trading.Sizing.MarginMode = "kelly" }},
		{"fixed margin zero", func(c *Config) { c.Trading.Sizing.FixedMargin = 0 }},
		{"percent above one", func(c *Config) {
			c.Trading.Sizing.MarginMode = domain.MarginPercentOfBalance
			c.Trading.Sizing.PercentOfBalance = 1.5
		}},
		{"negative min order", func(c *Config) { c.Trading.Sizing.MinOrderSize = -1 }},
		{"bad interval", func(c *Config) { c.Backtest.Interval = "1m" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
