package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/reversal_bot/internal/config"
	"github.com/vitos/reversal_bot/internal/domain"
	"github.com/vitos/reversal_bot/internal/infrastructure/exchange"
	"github.com/vitos/reversal_bot/internal/usecase"
	"go.uber.org/zap"
)

// Default sequence walks the whole decision table: open long, reverse to
// short, exit on a mild signal.
var defaultSignals = []string{
	"AI Bullish Reversal",
	"AI Bearish Reversal",
	"Mild Bullish Reversal",
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	pause := flag.Duration("pause", 3*time.Second, "wait between signals")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	signals := flag.Args()
	if len(signals) == 0 {
		signals = defaultSignals
	}

	fmt.Printf("Testing Trading on Bybit (%s)...\n", cfg.Exchange.RESTEndpoint)

	log, _ := zap.NewDevelopment()
	adapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, "", log)
	sizer := usecase.NewPositionSizer(adapter, cfg.Trading.Sizing, cfg.Trading.MarginType, log)
	executor := usecase.NewTradeExecutor(adapter, nil, log)
	svc := usecase.NewSignalService(cfg.Trading.Symbol, adapter, sizer, executor, nil, nil, log)
	ctx := context.Background()

	for i, raw := range signals {
		if i > 0 {
			time.Sleep(*pause)
		}
		fmt.Printf("\n--- %s ---\n", raw)

		res := svc.HandleSignal(ctx, raw)
		switch res.Status {
		case domain.StatusOK:
			fmt.Printf("✅ ok (held %s %f, new size %f)\n", res.PositionSide, res.PositionSize, res.NewSize)
		case domain.StatusError:
			fmt.Printf("❌ error: %s\n", res.Message)
		default:
			fmt.Printf("⚠️ %s\n", res.Status)
		}
		for _, o := range res.Orders {
			fmt.Printf("  %s %s %f: %s %s %s\n", o.Intent.Action, o.Intent.Side, o.Intent.Quantity, o.Status, o.OrderID, o.Error)
		}

		pos, err := adapter.GetPosition(ctx, cfg.Trading.Symbol)
		if err != nil {
			fmt.Printf("⚠️ Failed to get position: %v\n", err)
			continue
		}
		fmt.Printf("Position: Side=%s, Size=%f, Entry=%f\n", pos.HeldSide(), pos.Size, pos.EntryPrice)
	}
}
