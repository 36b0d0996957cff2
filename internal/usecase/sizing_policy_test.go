package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/reversal_bot/internal/domain"
	"github.com/vitos/reversal_bot/internal/usecase"
	"go.uber.org/zap"
)

func fixedSizing() domain.SizingParams {
	return domain.SizingParams{
		MarginMode:     domain.MarginFixed,
		FixedMargin:    5,
		Leverage:       5,
		MinOrderSize:   0.001,
		RoundingDigits: 5,
	}
}

func TestComputeOrderSize(t *testing.T) {
	base := fixedSizing()

	withMin := func(min float64) domain.SizingParams {
		p := base
		p.MinOrderSize = min
		return p
	}
	percent := base
	percent.MarginMode = domain.MarginPercentOfBalance
	percent.PercentOfBalance = 0.1
	coarse := base
	coarse.Leverage = 3
	coarse.RoundingDigits = 2
	coarse.MinOrderSize = 0
	noLeverage := base
	noLeverage.Leverage = 0

	tests := []struct {
		name    string
		balance float64
		price   float64
		params  domain.SizingParams
		want    float64
	}{
		{"floored to min order size", 100, 50000, base, 0.001},
		{"above min order size", 100, 50000, withMin(0.0001), 0.0005},
		{"percent of balance", 200, 50000, percent, 0.002},
		{"rounded to digits", 100, 7, coarse, 2.14},
		{"zero price", 100, 0, base, 0},
		{"negative price", 100, -1, base, 0},
		{"zero balance", 0, 50000, base, 0},
		{"balance below margin", 4.99, 50000, base, 0},
		{"zero leverage", 100, 50000, noLeverage, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, usecase.ComputeOrderSize(tt.balance, tt.price, tt.params), 1e-12)
		})
	}
}

func TestPositionSizer_Size(t *testing.T) {
	ex := &MockExchange{Balance: 100, Price: 50000}
	sizer := usecase.NewPositionSizer(ex, fixedSizing(), domain.MarginIsolated, zap.NewNop())

	size := sizer.Size(context.Background(), "BTCUSDT")

	assert.InDelta(t, 0.001, size, 1e-12)
	assert.Equal(t, []int{5}, ex.LeverageCalls)
	assert.Equal(t, []domain.MarginType{domain.MarginIsolated}, ex.MarginCalls)
	// Switching margin mode resets leverage on the venue, so leverage goes last.
	assert.Equal(t, []string{"margin_mode", "leverage"}, ex.SettingsCalls)
}

func TestPositionSizer_DefaultsToIsolated(t *testing.T) {
	ex := &MockExchange{Balance: 100, Price: 50000}
	sizer := usecase.NewPositionSizer(ex, fixedSizing(), "", zap.NewNop())

	sizer.Size(context.Background(), "BTCUSDT")

	assert.Equal(t, []domain.MarginType{domain.MarginIsolated}, ex.MarginCalls)
}

func TestPositionSizer_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		ex   *MockExchange
	}{
		{"balance error", &MockExchange{BalanceErr: errExchangeDown, Price: 50000}},
		{"price error", &MockExchange{Balance: 100, PriceErr: errExchangeDown}},
		{"balance below margin", &MockExchange{Balance: 1, Price: 50000}},
		{"zero price", &MockExchange{Balance: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizer := usecase.NewPositionSizer(tt.ex, fixedSizing(), domain.MarginIsolated, zap.NewNop())
			assert.Zero(t, sizer.Size(context.Background(), "BTCUSDT"))
		})
	}
}
