package domain

import "time"

type SignalStatus string

const (
	StatusOK      SignalStatus = "ok"
	StatusNoSize  SignalStatus = "no_size"
	StatusUnknown SignalStatus = "unknown"
	StatusError   SignalStatus = "error"
)

// SignalResult is the full record of one webhook evaluation.
type SignalResult struct {
	ID           string         `json:"id"`
	ReceivedAt   time.Time      `json:"received_at"`
	Raw          string         `json:"raw"`
	Signal       *Signal        `json:"signal,omitempty"`
	Status       SignalStatus   `json:"status"`
	Message      string         `json:"msg,omitempty"`
	PositionSide Side           `json:"position_side,omitempty"`
	PositionSize float64        `json:"position_size,omitempty"`
	NewSize      float64        `json:"new_size,omitempty"`
	Orders       []OrderOutcome `json:"orders,omitempty"`
}

type TradeAction string

const (
	TradeOpenLong   TradeAction = "open_long"
	TradeOpenShort  TradeAction = "open_short"
	TradeCloseLong  TradeAction = "close_long"
	TradeCloseShort TradeAction = "close_short"
)

// BacktestTrade is a simulated fill. PnL is set on closing trades only.
type BacktestTrade struct {
	Time   time.Time   `json:"time"`
	Action TradeAction `json:"action"`
	Price  float64     `json:"price"`
	Size   float64     `json:"size"`
	PnL    *float64    `json:"pnl,omitempty"`
}

type BacktestResult struct {
	ID           string          `json:"id,omitempty"`
	Symbol       string          `json:"symbol,omitempty"`
	Days         int             `json:"days,omitempty"`
	CandleCount  int             `json:"candles"`
	TradeCount   int             `json:"trades_count"`
	TotalPnL     float64         `json:"total_pnl"`
	WinRate      float64         `json:"win_rate"`
	MaxDrawdown  float64         `json:"max_drawdown"`
	PeakDrawdown float64         `json:"peak_to_trough_drawdown"`
	FinalEquity  float64         `json:"final_equity"`
	EquityCurve  []float64       `json:"-"`
	Trades       []BacktestTrade `json:"trades"`
}

// BacktestRun is the persisted summary of a backtest.
type BacktestRun struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Days        int       `json:"days"`
	CandleCount int       `json:"candles"`
	TradeCount  int       `json:"trades_count"`
	TotalPnL    float64   `json:"total_pnl"`
	WinRate     float64   `json:"win_rate"`
	MaxDrawdown float64   `json:"max_drawdown"`
	FinalEquity float64   `json:"final_equity"`
	CreatedAt   time.Time `json:"created_at"`
}
