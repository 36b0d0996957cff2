// Package metrics exposes the bot's Prometheus series:
//   - signals_total{status}                 webhook evaluations by outcome
//   - orders_total{action,side,result}      submitted intents by result
//   - backtest_runs_total                   completed backtests
//   - backtest_final_equity                 final equity of the last backtest
//   - instrument_last_price{symbol}         last streamed price
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/reversal_bot/internal/domain"
)

type Metrics struct {
	registry *prometheus.Registry

	signals        *prometheus.CounterVec
	orders         *prometheus.CounterVec
	backtestRuns   prometheus.Counter
	backtestEquity prometheus.Gauge
	lastPrice      *prometheus.GaugeVec
}

// New registers the series on a fresh registry, so several instances can
// live side by side in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signals_total",
				Help: "Webhook signals handled, by status",
			},
			[]string{"status"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_total",
				Help: "Order intents, by action, position side and result",
			},
			[]string{"action", "side", "result"},
		),
		backtestRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtest_runs_total",
				Help: "Completed backtest runs",
			},
		),
		backtestEquity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backtest_final_equity",
				Help: "Final equity of the most recent backtest (seeded at 100)",
			},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "instrument_last_price",
				Help: "Last streamed price",
			},
			[]string{"symbol"},
		),
	}

	m.registry.MustRegister(m.signals, m.orders, m.backtestRuns, m.backtestEquity, m.lastPrice)
	m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSignal(status domain.SignalStatus) {
	m.signals.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveOrder(intent domain.OrderIntent, status domain.OutcomeStatus) {
	m.orders.WithLabelValues(string(intent.Action), string(intent.Side), string(status)).Inc()
}

func (m *Metrics) ObserveBacktest(res *domain.BacktestResult) {
	m.backtestRuns.Inc()
	m.backtestEquity.Set(res.FinalEquity)
}

func (m *Metrics) ObservePrice(symbol string, price float64) {
	m.lastPrice.WithLabelValues(symbol).Set(price)
}
