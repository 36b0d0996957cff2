package domain

import "fmt"

type IntentAction string

const (
	ActionClose IntentAction = "close"
	ActionOpen  IntentAction = "open"
)

// OrderIntent is one step decided for a signal. For a close, Side is the side
// of the position being closed, not the side of the order that closes it.
type OrderIntent struct {
	Action   IntentAction `json:"action"`
	Side     Side         `json:"side"`
	Quantity float64      `json:"quantity"`
}

func CloseIntent(side Side, qty float64) OrderIntent {
	return OrderIntent{Action: ActionClose, Side: side, Quantity: qty}
}

func OpenIntent(side Side, qty float64) OrderIntent {
	return OrderIntent{Action: ActionOpen, Side: side, Quantity: qty}
}

// OrderSide is the side of the market order that carries out the intent.
func (i OrderIntent) OrderSide() OrderSide {
	buy := i.Side == SideLong
	if i.Action == ActionClose {
		buy = !buy
	}
	if buy {
		return OrderBuy
	}
	return OrderSell
}

func (i OrderIntent) ReduceOnly() bool {
	return i.Action == ActionClose
}

func (i OrderIntent) String() string {
	return fmt.Sprintf("%s %s %g", i.Action, i.Side, i.Quantity)
}

type OutcomeStatus string

const (
	OutcomeExecuted OutcomeStatus = "executed"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeSkipped  OutcomeStatus = "skipped"
)

// OrderOutcome reports what happened to a single intent.
type OrderOutcome struct {
	Intent        OrderIntent   `json:"intent"`
	Status        OutcomeStatus `json:"status"`
	OrderID       string        `json:"order_id,omitempty"`
	ClientOrderID string        `json:"client_order_id,omitempty"`
	Error         string        `json:"error,omitempty"`
}
