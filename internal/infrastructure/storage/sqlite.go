package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/reversal_bot/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			received_at DATETIME NOT NULL,
			raw TEXT NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			strength TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			position_side TEXT NOT NULL DEFAULT '',
			position_size REAL NOT NULL DEFAULT 0,
			new_size REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_received_at ON signals(received_at);`,
		`CREATE TABLE IF NOT EXISTS signal_orders (
			signal_id TEXT NOT NULL REFERENCES signals(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			reduce_only BOOLEAN NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			client_order_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (signal_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			days INTEGER NOT NULL,
			candles INTEGER NOT NULL,
			trades_count INTEGER NOT NULL,
			total_pnl REAL NOT NULL,
			win_rate REAL NOT NULL,
			max_drawdown REAL NOT NULL,
			final_equity REAL NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SaveSignalResult stores the evaluation and its per-intent outcomes in one transaction.
func (s *SQLiteStore) SaveSignalResult(ctx context.Context, res *domain.SignalResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var direction, strength string
	if res.Signal != nil {
		direction = string(res.Signal.Direction)
		strength = string(res.Signal.Strength)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO signals (id, received_at, raw, direction, strength, status, message, position_side, position_size, new_size)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.ReceivedAt, res.Raw, direction, strength, res.Status, res.Message, res.PositionSide, res.PositionSize, res.NewSize)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	for i, o := range res.Orders {
		_, err = tx.ExecContext(ctx, `INSERT INTO signal_orders (signal_id, seq, action, side, quantity, reduce_only, order_id, client_order_id, status, error)
				  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ID, i, o.Intent.Action, o.Intent.Side, o.Intent.Quantity, o.Intent.ReduceOnly(), o.OrderID, o.ClientOrderID, o.Status, o.Error)
		if err != nil {
			return fmt.Errorf("insert signal order: %w", err)
		}
	}

	return tx.Commit()
}

// ListSignalResults returns the newest evaluations first, with their orders.
func (s *SQLiteStore) ListSignalResults(ctx context.Context, limit int) ([]*domain.SignalResult, error) {
	query := `SELECT id, received_at, raw, direction, strength, status, message, position_side, position_size, new_size
			  FROM signals ORDER BY received_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.SignalResult
	byID := make(map[string]*domain.SignalResult)
	for rows.Next() {
		var r domain.SignalResult
		var direction, strength string
		if err := rows.Scan(&r.ID, &r.ReceivedAt, &r.Raw, &direction, &strength, &r.Status, &r.Message, &r.PositionSide, &r.PositionSize, &r.NewSize); err != nil {
			return nil, err
		}
		if direction != "" {
			r.Signal = &domain.Signal{Direction: domain.Direction(direction), Strength: domain.Strength(strength)}
		}
		results = append(results, &r)
		byID[r.ID] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the single connection before the second query.
	rows.Close()
	if len(results) == 0 {
		return results, nil
	}

	if err := s.attachOrders(ctx, byID, limit); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SQLiteStore) attachOrders(ctx context.Context, byID map[string]*domain.SignalResult, limit int) error {
	query := `SELECT signal_id, action, side, quantity, order_id, client_order_id, status, error
			  FROM signal_orders
			  WHERE signal_id IN (SELECT id FROM signals ORDER BY received_at DESC, rowid DESC LIMIT ?)
			  ORDER BY signal_id, seq`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var signalID string
		var o domain.OrderOutcome
		if err := rows.Scan(&signalID, &o.Intent.Action, &o.Intent.Side, &o.Intent.Quantity, &o.OrderID, &o.ClientOrderID, &o.Status, &o.Error); err != nil {
			return err
		}
		if r, ok := byID[signalID]; ok {
			r.Orders = append(r.Orders, o)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) SaveBacktestRun(ctx context.Context, run *domain.BacktestRun) error {
	query := `INSERT INTO backtest_runs (id, symbol, days, candles, trades_count, total_pnl, win_rate, max_drawdown, final_equity, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Symbol, run.Days, run.CandleCount, run.TradeCount, run.TotalPnL, run.WinRate, run.MaxDrawdown, run.FinalEquity, run.CreatedAt)
	return err
}

func (s *SQLiteStore) ListBacktestRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error) {
	query := `SELECT id, symbol, days, candles, trades_count, total_pnl, win_rate, max_drawdown, final_equity, created_at
			  FROM backtest_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.BacktestRun
	for rows.Next() {
		var r domain.BacktestRun
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Days, &r.CandleCount, &r.TradeCount, &r.TotalPnL, &r.WinRate, &r.MaxDrawdown, &r.FinalEquity, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = createdAt.UTC()
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
