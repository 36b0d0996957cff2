package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/reversal_bot/internal/config"
	"github.com/vitos/reversal_bot/internal/infrastructure/exchange"
	"github.com/vitos/reversal_bot/internal/usecase"
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

	symbol := cfg.Trading.Symbol
	fmt.Printf("Testing Bybit Interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)
	if len(cfg.Exchange.APIKey) >= 4 {
		fmt.Printf("API Key: %s...\n", cfg.Exchange.APIKey[:4])
	}

	adapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 2. Check Public Endpoint (Price)
	price, err := adapter.GetLastPrice(ctx, symbol)
	if err != nil {
		fmt.Printf("❌ Failed to get price: %v\n", err)
	} else {
		fmt.Printf("✅ Last Price (%s): %f\n", symbol, price)
	}

	// 3. Check Private Endpoints (Balance, Position)
	balance, err := adapter.GetFreeBalance(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get balance: %v\n", err)
	} else {
		fmt.Printf("✅ Free Balance (USDT): %f\n", balance)
	}

	pos, err := adapter.GetPosition(ctx, symbol)
	if err != nil {
		fmt.Printf("❌ Failed to get position: %v\n", err)
	} else {
		fmt.Printf("✅ Position (%s): Side=%s, Size=%f, Entry=%f, PnL=%f, Leverage=%d\n",
			symbol, pos.HeldSide(), pos.Size, pos.EntryPrice, pos.UnrealizedPnL, pos.Leverage)
	}

	// 4. Dry-run sizing against live data; does not touch leverage or margin mode.
	if price > 0 && balance > 0 {
		fmt.Printf("✅ Order size at current price: %g\n", usecase.ComputeOrderSize(balance, price, cfg.Trading.Sizing))
	}
}
