package usecase

import (
	"math"

	"github.com/vitos/reversal_bot/internal/domain"
)

const (
	bullishCandleRatio = 1.001
	bearishCandleRatio = 0.999

	equitySeed = 100.0

	// DefaultRecentTrades bounds the trade list returned with a result.
	DefaultRecentTrades = 10
)

// SimulationParams configures a backtest run. Balance is the account balance
// every simulated open is sized against.
type SimulationParams struct {
	Sizing       domain.SizingParams
	Balance      float64
	RecentTrades int
}

// CandleSignal derives a stand-in Strong signal from a candle body: a close
// more than 0.1% above the open is bullish, more than 0.1% below is bearish.
func CandleSignal(c domain.Candle) (domain.Signal, bool) {
	switch {
	case c.Close > c.Open*bullishCandleRatio:
		return domain.Signal{Direction: domain.Bullish, Strength: domain.Strong}, true
	case c.Close < c.Open*bearishCandleRatio:
		return domain.Signal{Direction: domain.Bearish, Strength: domain.Strong}, true
	}
	return domain.Signal{}, false
}

// simulation holds the in-memory account a backtest folds candles into.
type simulation struct {
	params     SimulationParams
	position   domain.Position
	entryPrice float64
	trades     []domain.BacktestTrade
	totalPnL   float64
	equity     []float64
}

// SimulateBacktest replays candles through the same decision table used for
// live signals. It is a pure function of its inputs.
func SimulateBacktest(candles []domain.Candle, params SimulationParams) *domain.BacktestResult {
	sim := &simulation{
		params:   params,
		position: domain.Position{Side: domain.SideFlat},
		equity:   make([]float64, 1, len(candles)+1),
	}
	sim.equity[0] = equitySeed

	for _, c := range candles {
		if sig, ok := CandleSignal(c); ok {
			sim.apply(c, sig)
		}
		sim.markEquity(c.Close)
	}
	return sim.result(len(candles))
}

func (s *simulation) apply(c domain.Candle, sig domain.Signal) {
	var newSize float64
	if WantsOpen(&s.position, sig) {
		newSize = ComputeOrderSize(s.params.Balance, c.Close, s.params.Sizing)
	}

	for _, intent := range DecideIntents(&s.position, sig, newSize) {
		switch intent.Action {
		case domain.ActionClose:
			s.close(c, intent)
		case domain.ActionOpen:
			s.open(c, intent)
		}
	}
}

func (s *simulation) close(c domain.Candle, intent domain.OrderIntent) {
	pnl := (c.Close - s.entryPrice) * intent.Quantity
	action := domain.TradeCloseLong
	if intent.Side == domain.SideShort {
		pnl = (s.entryPrice - c.Close) * intent.Quantity
		action = domain.TradeCloseShort
	}
	s.totalPnL += pnl
	s.trades = append(s.trades, domain.BacktestTrade{
		Time:   c.OpenTime(),
		Action: action,
		Price:  c.Close,
		Size:   intent.Quantity,
		PnL:    &pnl,
	})
	s.position = domain.Position{Side: domain.SideFlat}
	s.entryPrice = 0
}

func (s *simulation) open(c domain.Candle, intent domain.OrderIntent) {
	action := domain.TradeOpenLong
	if intent.Side == domain.SideShort {
		action = domain.TradeOpenShort
	}
	s.trades = append(s.trades, domain.BacktestTrade{
		Time:   c.OpenTime(),
		Action: action,
		Price:  c.Close,
		Size:   intent.Quantity,
	})
	s.position = domain.Position{Side: intent.Side, Size: intent.Quantity}
	s.entryPrice = c.Close
}

// markEquity appends the equity after a candle: scaled by close/entry while
// long, entry/close while short, carried forward while flat.
func (s *simulation) markEquity(closePrice float64) {
	last := s.equity[len(s.equity)-1]
	next := last
	switch s.position.HeldSide() {
	case domain.SideLong:
		if s.entryPrice > 0 {
			next = last * (closePrice / s.entryPrice)
		}
	case domain.SideShort:
		if closePrice > 0 {
			next = last * (s.entryPrice / closePrice)
		}
	}
	s.equity = append(s.equity, next)
}

func (s *simulation) result(candleCount int) *domain.BacktestResult {
	recent := s.params.RecentTrades
	if recent <= 0 {
		recent = DefaultRecentTrades
	}
	from := 0
	if len(s.trades) > recent {
		from = len(s.trades) - recent
	}
	trades := make([]domain.BacktestTrade, len(s.trades)-from)
	copy(trades, s.trades[from:])

	return &domain.BacktestResult{
		CandleCount:  candleCount,
		TradeCount:   len(s.trades),
		TotalPnL:     s.totalPnL,
		WinRate:      WinRate(s.trades),
		MaxDrawdown:  MinMaxDrawdown(s.equity),
		PeakDrawdown: PeakToTroughDrawdown(s.equity),
		FinalEquity:  s.equity[len(s.equity)-1],
		EquityCurve:  s.equity,
		Trades:       trades,
	}
}

// WinRate is winning closes over all closes. Opens carry no PnL and do not count.
func WinRate(trades []domain.BacktestTrade) float64 {
	var closed, wins int
	for _, t := range trades {
		if t.PnL == nil {
			continue
		}
		closed++
		if *t.PnL > 0 {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed)
}

// MinMaxDrawdown is min(equity)/max(equity). This is the figure the webhook
// bot has always reported as max_drawdown; it is a ratio, not a peak-to-trough
// loss. See PeakToTroughDrawdown for the latter.
func MinMaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	lo, hi := equity[0], equity[0]
	for _, e := range equity[1:] {
		lo = math.Min(lo, e)
		hi = math.Max(hi, e)
	}
	if hi == 0 {
		return 0
	}
	return lo / hi
}

// PeakToTroughDrawdown is the largest fractional fall from a running peak.
func PeakToTroughDrawdown(equity []float64) float64 {
	var peak, worst float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			worst = math.Max(worst, (peak-e)/peak)
		}
	}
	return worst
}
