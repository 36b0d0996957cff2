package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/reversal_bot/internal/config"
	"github.com/vitos/reversal_bot/internal/infrastructure/exchange"
	"github.com/vitos/reversal_bot/internal/infrastructure/logger"
	"github.com/vitos/reversal_bot/internal/infrastructure/metrics"
	"github.com/vitos/reversal_bot/internal/infrastructure/storage"
	"github.com/vitos/reversal_bot/internal/usecase"
	"github.com/vitos/reversal_bot/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Exchange (Bybit)
	bybitAdapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, log)
	bybitAdapter.SetPriceMaxAge(cfg.Exchange.PriceMaxAge)

	m := metrics.New()
	bybitAdapter.OnPriceUpdate(m.ObservePrice)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Exchange.PriceStream {
		go bybitAdapter.RunPriceStream(ctx, []string{cfg.Trading.Symbol})
	}

	// 5. Init Services
	sizer := usecase.NewPositionSizer(bybitAdapter, cfg.Trading.Sizing, cfg.Trading.MarginType, log)
	executor := usecase.NewTradeExecutor(bybitAdapter, m, log)
	signals := usecase.NewSignalService(cfg.Trading.Symbol, bybitAdapter, sizer, executor, store, m, log)

	loader := usecase.NewCandleLoader(bybitAdapter, cfg.Trading.Symbol, cfg.Backtest.Interval, cfg.Backtest.PageLimit, log)
	backtests := usecase.NewBacktestService(loader, cfg.Trading.Sizing, usecase.BacktestConfig{
		Symbol:       cfg.Trading.Symbol,
		MaxDays:      cfg.Backtest.MaxDays,
		Balance:      cfg.Backtest.InitialBalance,
		RecentTrades: cfg.Backtest.RecentTrades,
	}, store, m, log)

	// 6. Start Server
	server := web.NewServer(cfg.Server.Port, signals, backtests, store, m.Handler(), cfg.Backtest.DefaultDays, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	log.Info("Bot started",
		zap.String("symbol", cfg.Trading.Symbol),
		zap.Int("leverage", cfg.Trading.Sizing.Leverage),
		zap.String("margin_mode", string(cfg.Trading.Sizing.MarginMode)),
		zap.Int("port", cfg.Server.Port))

	// 7. Wait for Shutdown
	<-ctx.Done()

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
