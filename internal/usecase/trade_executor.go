package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

// TradeExecutor submits decided intents to the exchange strictly in order.
type TradeExecutor struct {
	exchange domain.Exchange
	metrics  domain.Metrics
	logger   *zap.Logger
	newID    func() string
}

func NewTradeExecutor(exchange domain.Exchange, metrics domain.Metrics, logger *zap.Logger) *TradeExecutor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &TradeExecutor{
		exchange: exchange,
		metrics:  metrics,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
	}
}

// Execute returns one outcome per intent. After the first failure the
// remaining intents are reported as skipped and never submitted, so an open
// can not follow a close that may not have happened.
func (e *TradeExecutor) Execute(ctx context.Context, symbol string, intents []domain.OrderIntent) ([]domain.OrderOutcome, error) {
	outcomes := make([]domain.OrderOutcome, 0, len(intents))
	var failure error

	for i, intent := range intents {
		if failure != nil {
			outcomes = append(outcomes, domain.OrderOutcome{Intent: intent, Status: domain.OutcomeSkipped, Error: "aborted after earlier failure"})
			e.metrics.ObserveOrder(intent, domain.OutcomeSkipped)
			continue
		}

		outcome := e.submit(ctx, symbol, intent)
		outcomes = append(outcomes, outcome)
		e.metrics.ObserveOrder(intent, outcome.Status)

		if outcome.Status == domain.OutcomeFailed {
			failure = fmt.Errorf("%s intent %d (%s) failed: %s", intent.Action, i+1, intent, outcome.Error)
		}
	}
	return outcomes, failure
}

func (e *TradeExecutor) submit(ctx context.Context, symbol string, intent domain.OrderIntent) domain.OrderOutcome {
	outcome := domain.OrderOutcome{Intent: intent}

	if intent.Quantity <= 0 {
		outcome.Status = domain.OutcomeFailed
		outcome.Error = fmt.Sprintf("invalid quantity: %g", intent.Quantity)
		return outcome
	}
	if intent.Side != domain.SideLong && intent.Side != domain.SideShort {
		outcome.Status = domain.OutcomeFailed
		outcome.Error = fmt.Sprintf("invalid side: %s", intent.Side)
		return outcome
	}

	req := domain.OrderRequest{
		Symbol:        symbol,
		Side:          intent.OrderSide(),
		Quantity:      intent.Quantity,
		ReduceOnly:    intent.ReduceOnly(),
		ClientOrderID: e.newID(),
	}
	outcome.ClientOrderID = req.ClientOrderID

	e.logger.Info("Submitting market order",
		zap.String("symbol", symbol),
		zap.String("action", string(intent.Action)),
		zap.String("order_side", string(req.Side)),
		zap.Float64("qty", req.Quantity),
		zap.Bool("reduce_only", req.ReduceOnly))

	ack, err := e.exchange.SubmitMarketOrder(ctx, req)
	if err != nil {
		e.logger.Error("Market order failed",
			zap.String("symbol", symbol),
			zap.String("action", string(intent.Action)),
			zap.Error(err))
		outcome.Status = domain.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = domain.OutcomeExecuted
	if ack != nil {
		outcome.OrderID = ack.OrderID
	}
	return outcome
}
