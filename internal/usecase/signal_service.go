package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

// evaluationTimeout bounds one detached signal evaluation.
const evaluationTimeout = 2 * time.Minute

// Sizer resolves the quantity of a new position; 0 means do not open.
type Sizer interface {
	Size(ctx context.Context, symbol string) float64
}

// SignalService turns webhook alerts into orders on a single instrument.
type SignalService struct {
	symbol   string
	exchange domain.Exchange
	sizer    Sizer
	executor *TradeExecutor
	journal  domain.JournalRepository
	metrics  domain.Metrics
	locks    *symbolLocks
	logger   *zap.Logger
	timeNow  func() time.Time
}

func NewSignalService(
	symbol string,
	exchange domain.Exchange,
	sizer Sizer,
	executor *TradeExecutor,
	journal domain.JournalRepository,
	metrics domain.Metrics,
	logger *zap.Logger,
) *SignalService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &SignalService{
		symbol:   symbol,
		exchange: exchange,
		sizer:    sizer,
		executor: executor,
		journal:  journal,
		metrics:  metrics,
		locks:    newSymbolLocks(),
		logger:   logger,
		timeNow:  time.Now,
	}
}

func (s *SignalService) Symbol() string {
	return s.symbol
}

// HandleSignal classifies raw, reads the live position, decides and executes
// the intents. The whole read-decide-execute span holds the instrument lock.
// The result always carries a status; failures never escape as panics.
//
// The evaluation runs detached from the caller's cancellation: once a close
// is sent, the caller going away must not stop the open that follows it.
func (s *SignalService) HandleSignal(ctx context.Context, raw string) *domain.SignalResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evaluationTimeout)
	defer cancel()

	res := &domain.SignalResult{
		ID:         uuid.New().String(),
		ReceivedAt: s.timeNow().UTC(),
		Raw:        raw,
	}
	s.logger.Info("Signal received", zap.String("id", res.ID), zap.String("raw", raw))

	s.evaluate(ctx, res)

	s.metrics.ObserveSignal(res.Status)
	if s.journal != nil {
		if err := s.journal.SaveSignalResult(ctx, res); err != nil {
			s.logger.Error("Failed to save signal", zap.String("id", res.ID), zap.Error(err))
		}
	}
	return res
}

func (s *SignalService) evaluate(ctx context.Context, res *domain.SignalResult) {
	sig, ok := ClassifySignal(res.Raw)
	if !ok {
		s.logger.Warn("Unknown signal", zap.String("raw", res.Raw))
		res.Status = domain.StatusUnknown
		return
	}
	res.Signal = &sig

	unlock, err := s.locks.Lock(ctx, s.symbol)
	if err != nil {
		s.fail(res, fmt.Errorf("waiting for %s lock: %w", s.symbol, err))
		return
	}
	defer unlock()

	pos, err := s.exchange.GetPosition(ctx, s.symbol)
	if err != nil {
		s.fail(res, fmt.Errorf("%w: %v", domain.ErrPositionUnavailable, err))
		return
	}
	if pos == nil {
		pos = domain.FlatPosition(s.symbol)
	}
	res.PositionSide = pos.HeldSide()
	res.PositionSize = pos.Size

	wantsOpen := WantsOpen(pos, sig)
	if wantsOpen {
		res.NewSize = s.sizer.Size(ctx, s.symbol)
	}

	intents := DecideIntents(pos, sig, res.NewSize)
	s.logger.Info("Signal decided",
		zap.String("signal", sig.String()),
		zap.String("held", string(res.PositionSide)),
		zap.Float64("held_size", pos.Size),
		zap.Float64("new_size", res.NewSize),
		zap.Int("intents", len(intents)))

	outcomes, err := s.executor.Execute(ctx, s.symbol, intents)
	res.Orders = outcomes
	if err != nil {
		s.fail(res, err)
		return
	}

	if wantsOpen && res.NewSize <= 0 {
		res.Status = domain.StatusNoSize
		return
	}
	res.Status = domain.StatusOK
}

func (s *SignalService) fail(res *domain.SignalResult, err error) {
	s.logger.Error("Signal evaluation failed", zap.String("id", res.ID), zap.Error(err))
	res.Status = domain.StatusError
	res.Message = err.Error()
}
