package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

// ComputeOrderSize returns the base-asset quantity for a new position, or 0
// when the account cannot fund the configured margin or the price is unknown.
// A non-zero result is never below MinOrderSize.
func ComputeOrderSize(balance, price float64, p domain.SizingParams) float64 {
	if price <= 0 || balance <= 0 || p.Leverage <= 0 {
		return 0
	}

	margin := requiredMargin(balance, p)
	if margin <= 0 || balance < margin {
		return 0
	}

	notional := decimal.NewFromFloat(margin).Mul(decimal.NewFromInt(int64(p.Leverage)))
	qty := notional.Div(decimal.NewFromFloat(price)).Round(int32(p.RoundingDigits)).InexactFloat64()
	if qty < p.MinOrderSize {
		qty = p.MinOrderSize
	}
	if qty <= 0 {
		return 0
	}
	return qty
}

func requiredMargin(balance float64, p domain.SizingParams) float64 {
	if p.MarginMode == domain.MarginPercentOfBalance {
		return balance * p.PercentOfBalance
	}
	return p.FixedMargin
}

// PositionSizer asserts leverage and margin mode on the venue, then sizes a
// new order from the free balance and the last price.
type PositionSizer struct {
	exchange   domain.Exchange
	params     domain.SizingParams
	marginType domain.MarginType
	logger     *zap.Logger
}

func NewPositionSizer(exchange domain.Exchange, params domain.SizingParams, marginType domain.MarginType, logger *zap.Logger) *PositionSizer {
	if marginType == "" {
		marginType = domain.MarginIsolated
	}
	return &PositionSizer{
		exchange:   exchange,
		params:     params,
		marginType: marginType,
		logger:     logger,
	}
}

func (s *PositionSizer) Params() domain.SizingParams {
	return s.params
}

// Size never returns an error: every data failure resolves to 0.
func (s *PositionSizer) Size(ctx context.Context, symbol string) float64 {
	s.enforceSettings(ctx, symbol)

	balance, err := s.exchange.GetFreeBalance(ctx)
	if err != nil {
		s.logger.Error("Balance unavailable", zap.Error(err))
		return 0
	}
	if margin := requiredMargin(balance, s.params); balance < margin || margin <= 0 {
		s.logger.Warn("Free balance below required margin",
			zap.Float64("balance", balance),
			zap.Float64("margin", margin))
		return 0
	}

	price, err := s.exchange.GetLastPrice(ctx, symbol)
	if err != nil {
		s.logger.Error("Price unavailable", zap.String("symbol", symbol), zap.Error(err))
		return 0
	}

	size := ComputeOrderSize(balance, price, s.params)
	s.logger.Info("Order size computed",
		zap.String("symbol", symbol),
		zap.Float64("balance", balance),
		zap.Float64("price", price),
		zap.Int("leverage", s.params.Leverage),
		zap.Float64("size", size))
	return size
}

// enforceSettings runs before every sizing since leverage and margin mode can
// be changed on the account behind our back. Failures are retried on the next call.
// Margin mode goes first: switching it rewrites leverage on the venue.
func (s *PositionSizer) enforceSettings(ctx context.Context, symbol string) {
	if err := s.exchange.SetMarginMode(ctx, symbol, s.marginType); err != nil {
		s.logger.Warn("Failed to set margin mode", zap.String("symbol", symbol), zap.String("mode", string(s.marginType)), zap.Error(err))
	}
	if err := s.exchange.SetLeverage(ctx, symbol, s.params.Leverage); err != nil {
		s.logger.Warn("Failed to set leverage", zap.String("symbol", symbol), zap.Int("leverage", s.params.Leverage), zap.Error(err))
	}
}
