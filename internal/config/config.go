// Package config loads the bot configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/reversal_bot/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		Name         string        `yaml:"name"`
		APIKey       string        `yaml:"api_key"`
		APISecret    string        `yaml:"api_secret"`
		RESTEndpoint string        `yaml:"rest_endpoint"`
		WSEndpoint   string        `yaml:"ws_endpoint"`
		PriceStream  bool          `yaml:"price_stream"`
		PriceMaxAge  time.Duration `yaml:"price_max_age"`
	} `yaml:"exchange"`
	Trading struct {
		Symbol     string              `yaml:"symbol"`
		MarginType domain.MarginType   `yaml:"margin_type"`
		Sizing     domain.SizingParams `yaml:"sizing"`
	} `yaml:"trading"`
	Backtest struct {
		Interval       string  `yaml:"interval"`
		DefaultDays    int     `yaml:"default_days"`
		MaxDays        int     `yaml:"max_days"`
		InitialBalance float64 `yaml:"initial_balance"`
		PageLimit      int     `yaml:"page_limit"`
		RecentTrades   int     `yaml:"recent_trades"`
	} `yaml:"backtest"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

// Default is a fixed-margin setup: 5 USDT of isolated margin at 5x on BTCUSDT.
func Default() *Config {
	var cfg Config
	cfg.Exchange.Name = "bybit"
	cfg.Exchange.PriceStream = true
	cfg.Exchange.PriceMaxAge = 5 * time.Second
	cfg.Trading.Symbol = "BTCUSDT"
	cfg.Trading.MarginType = domain.MarginIsolated
	cfg.Trading.Sizing = domain.SizingParams{
		MarginMode:       domain.MarginFixed,
		FixedMargin:      5,
		PercentOfBalance: 0.1,
		Leverage:         5,
		MinOrderSize:     0.001,
		RoundingDigits:   5,
	}
	cfg.Backtest.Interval = "1"
	cfg.Backtest.DefaultDays = 30
	cfg.Backtest.MaxDays = 90
	cfg.Backtest.InitialBalance = 100
	cfg.Backtest.PageLimit = 1000
	cfg.Backtest.RecentTrades = 10
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "json"
	cfg.Server.Port = 5000
	cfg.Storage.Path = "bot.db"
	return &cfg
}

// Load reads path over the defaults, then applies .env and environment
// overrides. A missing file is not an error: defaults plus env are enough.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	_ = godotenv.Load() // best-effort
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	s := c.Trading.Sizing
	switch {
	case c.Trading.Symbol == "":
		return errors.New("trading.symbol is required")
	case c.Trading.MarginType != domain.MarginIsolated && c.Trading.MarginType != domain.MarginCross:
		return fmt.Errorf("trading.margin_type must be isolated or cross, got %q", c.Trading.MarginType)
	case s.Leverage <= 0:
		return fmt.Errorf("trading.sizing.leverage must be positive, got %d", s.Leverage)
	case s.MarginMode != domain.MarginFixed && s.MarginMode != domain.MarginPercentOfBalance:
		return fmt.Errorf("trading.sizing.margin_mode must be fixed or percent, got %q", s.MarginMode)
	case s.MarginMode == domain.MarginFixed && s.FixedMargin <= 0:
		return errors.New("trading.sizing.fixed_margin must be positive")
	case s.MarginMode == domain.MarginPercentOfBalance && (s.PercentOfBalance <= 0 || s.PercentOfBalance > 1):
		return errors.New("trading.sizing.percent_of_balance must be in (0, 1]")
	case s.MinOrderSize < 0:
		return errors.New("trading.sizing.min_order_size must not be negative")
	case s.RoundingDigits < 0:
		return errors.New("trading.sizing.rounding_digits must not be negative")
	case c.Server.Port <= 0:
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if _, err := domain.IntervalDuration(c.Backtest.Interval); err != nil {
		return fmt.Errorf("backtest.interval: %w", err)
	}
	return nil
}
