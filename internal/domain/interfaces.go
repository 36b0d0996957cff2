package domain

import (
	"context"
	"errors"
)

// ErrPositionUnavailable marks an evaluation aborted because the held
// position could not be read.
var ErrPositionUnavailable = errors.New("position unavailable")

// CandleSource yields one page of historical candles, oldest first.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, since int64, limit int) ([]Candle, error)
}

// Exchange defines the operations the bot needs from a derivatives venue.
type Exchange interface {
	CandleSource
	GetFreeBalance(ctx context.Context) (float64, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	GetPosition(ctx context.Context, symbol string) (*Position, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginMode(ctx context.Context, symbol string, mode MarginType) error
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)
}

// JournalRepository persists webhook evaluations and backtest summaries.
type JournalRepository interface {
	SaveSignalResult(ctx context.Context, res *SignalResult) error
	ListSignalResults(ctx context.Context, limit int) ([]*SignalResult, error)
	SaveBacktestRun(ctx context.Context, run *BacktestRun) error
	ListBacktestRuns(ctx context.Context, limit int) ([]*BacktestRun, error)
}

// Metrics receives counters for signal handling, orders and backtests.
type Metrics interface {
	ObserveSignal(status SignalStatus)
	ObserveOrder(intent OrderIntent, status OutcomeStatus)
	ObserveBacktest(res *BacktestResult)
	ObservePrice(symbol string, price float64)
}
