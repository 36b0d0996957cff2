package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

type BacktestConfig struct {
	Symbol       string
	MaxDays      int
	Balance      float64
	RecentTrades int
}

// BacktestService runs the candle simulator over a trailing window.
type BacktestService struct {
	loader  *CandleLoader
	sizing  domain.SizingParams
	config  BacktestConfig
	journal domain.JournalRepository
	metrics domain.Metrics
	logger  *zap.Logger
	timeNow func() time.Time
}

func NewBacktestService(
	loader *CandleLoader,
	sizing domain.SizingParams,
	config BacktestConfig,
	journal domain.JournalRepository,
	metrics domain.Metrics,
	logger *zap.Logger,
) *BacktestService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &BacktestService{
		loader:  loader,
		sizing:  sizing,
		config:  config,
		journal: journal,
		metrics: metrics,
		logger:  logger,
		timeNow: time.Now,
	}
}

// ErrInvalidWindow is returned for a lookback outside [1, MaxDays].
var ErrInvalidWindow = errors.New("invalid backtest window")

func (s *BacktestService) Run(ctx context.Context, days int) (*domain.BacktestResult, error) {
	if days < 1 || (s.config.MaxDays > 0 && days > s.config.MaxDays) {
		return nil, fmt.Errorf("%w: %d days (max %d)", ErrInvalidWindow, days, s.config.MaxDays)
	}

	to := s.timeNow().UTC()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	s.logger.Info("Backtest starting",
		zap.String("symbol", s.config.Symbol),
		zap.Int("days", days),
		zap.Time("from", from))

	candles, err := s.loader.Load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading candles: %w", err)
	}

	res := SimulateBacktest(candles, SimulationParams{
		Sizing:       s.sizing,
		Balance:      s.config.Balance,
		RecentTrades: s.config.RecentTrades,
	})
	res.ID = uuid.New().String()
	res.Symbol = s.config.Symbol
	res.Days = days

	s.logger.Info("Backtest finished",
		zap.String("id", res.ID),
		zap.Int("candles", res.CandleCount),
		zap.Int("trades", res.TradeCount),
		zap.Float64("total_pnl", res.TotalPnL),
		zap.Float64("win_rate", res.WinRate),
		zap.Float64("final_equity", res.FinalEquity))

	s.metrics.ObserveBacktest(res)
	if s.journal != nil {
		run := &domain.BacktestRun{
			ID:          res.ID,
			Symbol:      res.Symbol,
			Days:        days,
			CandleCount: res.CandleCount,
			TradeCount:  res.TradeCount,
			TotalPnL:    res.TotalPnL,
			WinRate:     res.WinRate,
			MaxDrawdown: res.MaxDrawdown,
			FinalEquity: res.FinalEquity,
			CreatedAt:   to,
		}
		if err := s.journal.SaveBacktestRun(context.WithoutCancel(ctx), run); err != nil {
			s.logger.Error("Failed to save backtest run", zap.String("id", res.ID), zap.Error(err))
		}
	}
	return res, nil
}
