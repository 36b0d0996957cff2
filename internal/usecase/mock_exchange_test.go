package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/vitos/reversal_bot/internal/domain"
)

var errExchangeDown = errors.New("exchange down")

// MockExchange is an in-memory venue that records every call.
type MockExchange struct {
	mu sync.Mutex

	Position    *domain.Position
	PositionErr error
	Balance     float64
	BalanceErr  error
	Price       float64
	PriceErr    error
	Candles     []domain.Candle
	CandlesErr  error
	// OrderErrs fails the n-th submitted order (0-based).
	OrderErrs map[int]error
	// AfterOrder runs once an order is accepted, outside the lock.
	AfterOrder func(n int)

	Orders        []domain.OrderRequest
	LeverageCalls []int
	MarginCalls   []domain.MarginType
	SettingsCalls []string
	CandleCalls   []int64
	PositionCalls int
}

func (m *MockExchange) GetCandles(ctx context.Context, symbol, interval string, since int64, limit int) ([]domain.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandleCalls = append(m.CandleCalls, since)
	if m.CandlesErr != nil {
		return nil, m.CandlesErr
	}
	var page []domain.Candle
	for _, c := range m.Candles {
		if c.Time >= since && len(page) < limit {
			page = append(page, c)
		}
	}
	return page, nil
}

func (m *MockExchange) GetFreeBalance(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Balance, m.BalanceErr
}

func (m *MockExchange) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Price, m.PriceErr
}

func (m *MockExchange) GetPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PositionCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.PositionErr != nil {
		return nil, m.PositionErr
	}
	if m.Position == nil {
		return nil, nil
	}
	p := *m.Position
	return &p, nil
}

func (m *MockExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LeverageCalls = append(m.LeverageCalls, leverage)
	m.SettingsCalls = append(m.SettingsCalls, "leverage")
	return nil
}

func (m *MockExchange) SetMarginMode(ctx context.Context, symbol string, mode domain.MarginType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarginCalls = append(m.MarginCalls, mode)
	m.SettingsCalls = append(m.SettingsCalls, "margin_mode")
	return nil
}

// SubmitMarketOrder also moves the mock position the way a venue would.
// A done ctx fails the order like an aborted HTTP call.
func (m *MockExchange) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, error) {
	ack, n, err := m.submit(ctx, req)
	if err == nil && m.AfterOrder != nil {
		m.AfterOrder(n)
	}
	return ack, err
}

func (m *MockExchange) submit(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.Orders)
	m.Orders = append(m.Orders, req)
	if err := ctx.Err(); err != nil {
		return nil, n, err
	}
	if err := m.OrderErrs[n]; err != nil {
		return nil, n, err
	}

	if req.ReduceOnly {
		m.Position = domain.FlatPosition(req.Symbol)
	} else {
		side := domain.SideLong
		if req.Side == domain.OrderSell {
			side = domain.SideShort
		}
		m.Position = &domain.Position{Symbol: req.Symbol, Side: side, Size: req.Quantity}
	}
	return &domain.OrderAck{OrderID: req.ClientOrderID + "-ack", ClientOrderID: req.ClientOrderID}, n, nil
}

func (m *MockExchange) SubmittedOrders() []domain.OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderRequest(nil), m.Orders...)
}

// MockJournal keeps saved records in memory.
type MockJournal struct {
	mu      sync.Mutex
	Signals []*domain.SignalResult
	Runs    []*domain.BacktestRun
	SaveErr error
}

func (j *MockJournal) SaveSignalResult(ctx context.Context, res *domain.SignalResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.SaveErr != nil {
		return j.SaveErr
	}
	j.Signals = append(j.Signals, res)
	return nil
}

func (j *MockJournal) ListSignalResults(ctx context.Context, limit int) ([]*domain.SignalResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Signals, nil
}

func (j *MockJournal) SaveBacktestRun(ctx context.Context, run *domain.BacktestRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.SaveErr != nil {
		return j.SaveErr
	}
	j.Runs = append(j.Runs, run)
	return nil
}

func (j *MockJournal) ListBacktestRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Runs, nil
}

// fixedSizer returns the same size for every call.
type fixedSizer struct {
	size  float64
	calls int
}

func (s *fixedSizer) Size(ctx context.Context, symbol string) float64 {
	s.calls++
	return s.size
}
