package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitos/reversal_bot/internal/config"
	"github.com/vitos/reversal_bot/internal/infrastructure/exchange"
	"github.com/vitos/reversal_bot/internal/infrastructure/logger"
	"github.com/vitos/reversal_bot/internal/infrastructure/storage"
	"github.com/vitos/reversal_bot/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	days := flag.Int("days", 0, "lookback in days (default from config)")
	save := flag.Bool("save", false, "record the run in the journal")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *days == 0 {
		*days = cfg.Backtest.DefaultDays
	}

	// Logs go to stderr so stdout stays valid JSON.
	log, err := logger.NewLogger(cfg.Logging.Level, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Candles are public; no credentials needed.
	bybitAdapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, "", log)
	loader := usecase.NewCandleLoader(bybitAdapter, cfg.Trading.Symbol, cfg.Backtest.Interval, cfg.Backtest.PageLimit, log)

	var svc *usecase.BacktestService
	btCfg := usecase.BacktestConfig{
		Symbol:       cfg.Trading.Symbol,
		MaxDays:      cfg.Backtest.MaxDays,
		Balance:      cfg.Backtest.InitialBalance,
		RecentTrades: cfg.Backtest.RecentTrades,
	}
	if *save {
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer store.Close()
		svc = usecase.NewBacktestService(loader, cfg.Trading.Sizing, btCfg, store, nil, log)
	} else {
		svc = usecase.NewBacktestService(loader, cfg.Trading.Sizing, btCfg, nil, nil, log)
	}

	res, err := svc.Run(ctx, *days)
	if err != nil {
		log.Error("Backtest failed", zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Error("Failed to encode result", zap.Error(err))
		os.Exit(1)
	}
}
