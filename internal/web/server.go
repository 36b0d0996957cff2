package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

// SignalHandler evaluates one raw webhook alert.
type SignalHandler interface {
	HandleSignal(ctx context.Context, raw string) *domain.SignalResult
}

// BacktestRunner replays the trailing days of candles.
type BacktestRunner interface {
	Run(ctx context.Context, days int) (*domain.BacktestResult, error)
}

type Server struct {
	router       *http.ServeMux
	server       *http.Server
	signals      SignalHandler
	backtests    BacktestRunner
	journal      domain.JournalRepository
	metrics      http.Handler
	backtestDays int
	logger       *zap.Logger
}

func NewServer(
	port int,
	signals SignalHandler,
	backtests BacktestRunner,
	journal domain.JournalRepository,
	metrics http.Handler,
	backtestDays int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:       http.NewServeMux(),
		signals:      signals,
		backtests:    backtests,
		journal:      journal,
		metrics:      metrics,
		backtestDays: backtestDays,
		logger:       logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Signals
	s.router.HandleFunc("POST /webhook", s.handleWebhook)

	// Liveness
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Backtest
	s.router.HandleFunc("GET /backtest", s.handleBacktest)

	// Journal
	s.router.HandleFunc("GET /api/signals", s.handleListSignals)
	s.router.HandleFunc("GET /api/backtests", s.handleListBacktests)

	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
