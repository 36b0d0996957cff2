package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideFlat  Side = "FLAT"
)

// Opposite returns the other directional side. Flat has no opposite.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	}
	return SideFlat
}

type MarginType string

const (
	MarginIsolated MarginType = "isolated"
	MarginCross    MarginType = "cross"
)

// Position represents the single net position held on the instrument.
type Position struct {
	Exchange      string     `json:"exchange,omitempty"`
	Symbol        string     `json:"symbol"`
	Side          Side       `json:"side"`
	Size          float64    `json:"size"`
	EntryPrice    float64    `json:"entry_price,omitempty"`
	CurrentPrice  float64    `json:"current_price,omitempty"`
	UnrealizedPnL float64    `json:"unrealized_pnl,omitempty"`
	Leverage      int        `json:"leverage,omitempty"`
	MarginType    MarginType `json:"margin_type,omitempty"`
}

// FlatPosition is the empty position for symbol.
func FlatPosition(symbol string) *Position {
	return &Position{Symbol: symbol, Side: SideFlat}
}

// HeldSide reports the side actually held. A zero size is Flat whatever the venue says.
func (p *Position) HeldSide() Side {
	if p == nil || p.Size <= 0 {
		return SideFlat
	}
	if p.Side != SideLong && p.Side != SideShort {
		return SideFlat
	}
	return p.Side
}

type OrderSide string

const (
	OrderBuy  OrderSide = "Buy"
	OrderSell OrderSide = "Sell"
)

// OrderRequest is a market order as submitted to the exchange.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Quantity      float64
	ReduceOnly    bool
	ClientOrderID string
}

// OrderAck is the venue acknowledgement of a submitted order.
type OrderAck struct {
	OrderID       string    `json:"order_id"`
	ClientOrderID string    `json:"client_order_id"`
	CreatedAt     time.Time `json:"created_at"`
}
