package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/reversal_bot/internal/domain"
	"github.com/vitos/reversal_bot/internal/usecase"
)

var (
	strongBull = domain.Signal{Direction: domain.Bullish, Strength: domain.Strong}
	strongBear = domain.Signal{Direction: domain.Bearish, Strength: domain.Strong}
	mildBull   = domain.Signal{Direction: domain.Bullish, Strength: domain.Mild}
	mildBear   = domain.Signal{Direction: domain.Bearish, Strength: domain.Mild}
)

func held(side domain.Side, size float64) *domain.Position {
	return &domain.Position{Symbol: "BTCUSDT", Side: side, Size: size}
}

func TestDecideIntents(t *testing.T) {
	flat := domain.FlatPosition("BTCUSDT")
	long := held(domain.SideLong, 0.02)
	short := held(domain.SideShort, 0.03)

	tests := []struct {
		name    string
		current *domain.Position
		sig     domain.Signal
		newSize float64
		want    []domain.OrderIntent
	}{
		{"flat strong bull opens long", flat, strongBull, 0.01, []domain.OrderIntent{domain.OpenIntent(domain.SideLong, 0.01)}},
		{"flat strong bear opens short", flat, strongBear, 0.01, []domain.OrderIntent{domain.OpenIntent(domain.SideShort, 0.01)}},
		{"flat mild bull does nothing", flat, mildBull, 0.01, nil},
		{"flat mild bear does nothing", flat, mildBear, 0.01, nil},
		{"long strong bull is idempotent", long, strongBull, 0.01, nil},
		{"long mild bull is idempotent", long, mildBull, 0.01, nil},
		{"long strong bear reverses", long, strongBear, 0.01, []domain.OrderIntent{
			domain.CloseIntent(domain.SideLong, 0.02),
			domain.OpenIntent(domain.SideShort, 0.01),
		}},
		{"long mild bear only closes", long, mildBear, 0.01, []domain.OrderIntent{domain.CloseIntent(domain.SideLong, 0.02)}},
		{"short strong bear is idempotent", short, strongBear, 0.01, nil},
		{"short mild bear is idempotent", short, mildBear, 0.01, nil},
		{"short strong bull reverses", short, strongBull, 0.01, []domain.OrderIntent{
			domain.CloseIntent(domain.SideShort, 0.03),
			domain.OpenIntent(domain.SideLong, 0.01),
		}},
		{"short mild bull only closes", short, mildBull, 0.01, []domain.OrderIntent{domain.CloseIntent(domain.SideShort, 0.03)}},
		{"zero size blocks open from flat", flat, strongBull, 0, nil},
		{"zero size still closes", long, strongBear, 0, []domain.OrderIntent{domain.CloseIntent(domain.SideLong, 0.02)}},
		{"nil position is flat", nil, strongBear, 0.01, []domain.OrderIntent{domain.OpenIntent(domain.SideShort, 0.01)}},
		{"zero size position is flat", held(domain.SideLong, 0), strongBear, 0.01, []domain.OrderIntent{domain.OpenIntent(domain.SideShort, 0.01)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.DecideIntents(tt.current, tt.sig, tt.newSize))
		})
	}
}

func TestDecideIntents_CloseUsesHeldQuantity(t *testing.T) {
	intents := usecase.DecideIntents(held(domain.SideShort, 0.1234), strongBull, 0.001)

	assert.Len(t, intents, 2)
	assert.Equal(t, domain.ActionClose, intents[0].Action)
	assert.Equal(t, 0.1234, intents[0].Quantity)
	assert.Equal(t, domain.OrderBuy, intents[0].OrderSide())
	assert.True(t, intents[0].ReduceOnly())
	assert.Equal(t, domain.OrderBuy, intents[1].OrderSide())
	assert.False(t, intents[1].ReduceOnly())
}

func TestWantsOpen(t *testing.T) {
	assert.True(t, usecase.WantsOpen(domain.FlatPosition("BTCUSDT"), strongBull))
	assert.True(t, usecase.WantsOpen(held(domain.SideShort, 1), strongBull))
	assert.False(t, usecase.WantsOpen(held(domain.SideLong, 1), strongBull))
	assert.False(t, usecase.WantsOpen(held(domain.SideShort, 1), mildBull))
	assert.False(t, usecase.WantsOpen(nil, mildBear))
}
