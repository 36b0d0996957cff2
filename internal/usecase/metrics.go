package usecase

import "github.com/vitos/reversal_bot/internal/domain"

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveSignal(domain.SignalStatus)                     {}
func (NopMetrics) ObserveOrder(domain.OrderIntent, domain.OutcomeStatus) {}
func (NopMetrics) ObserveBacktest(*domain.BacktestResult)                {}
func (NopMetrics) ObservePrice(string, float64)                          {}
