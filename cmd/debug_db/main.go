package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/reversal_bot/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "bot.db", "path to sqlite journal")
	limit := flag.Int("limit", 20, "rows per table")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	results, err := store.ListSignalResults(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list signals: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d signals:\n", len(results))
	for _, r := range results {
		fmt.Printf("- %s %s %q -> %s", r.ReceivedAt.Format("2006-01-02 15:04:05"), r.ID, r.Raw, r.Status)
		if r.Message != "" {
			fmt.Printf(" (%s)", r.Message)
		}
		fmt.Println()
		for _, o := range r.Orders {
			fmt.Printf("    %s %s %f: %s %s\n", o.Intent.Action, o.Intent.Side, o.Intent.Quantity, o.Status, o.Error)
		}
	}

	runs, err := store.ListBacktestRuns(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list backtests: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nFound %d backtest runs:\n", len(runs))
	for _, r := range runs {
		fmt.Printf("- %s %s %s %dd: trades=%d pnl=%f win=%.2f equity=%f\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID, r.Symbol, r.Days, r.TradeCount, r.TotalPnL, r.WinRate, r.FinalEquity)
	}
}
