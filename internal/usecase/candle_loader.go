package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

const defaultCandlePageLimit = 1000

// CandleLoader pages historical candles out of a CandleSource.
type CandleLoader struct {
	source    domain.CandleSource
	symbol    string
	interval  string
	pageLimit int
	logger    *zap.Logger
}

func NewCandleLoader(source domain.CandleSource, symbol, interval string, pageLimit int, logger *zap.Logger) *CandleLoader {
	if pageLimit <= 0 {
		pageLimit = defaultCandlePageLimit
	}
	return &CandleLoader{
		source:    source,
		symbol:    symbol,
		interval:  interval,
		pageLimit: pageLimit,
		logger:    logger,
	}
}

// Load returns the candles opening in [from, to), oldest first and without
// duplicates. It stops early when the source runs dry or stops advancing.
func (l *CandleLoader) Load(ctx context.Context, from, to time.Time) ([]domain.Candle, error) {
	step, err := domain.IntervalDuration(l.interval)
	if err != nil {
		return nil, err
	}

	cursor := from.UnixMilli()
	end := to.UnixMilli()
	var out []domain.Candle

	for cursor < end {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := l.source.GetCandles(ctx, l.symbol, l.interval, cursor, l.pageLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching candles since %d: %w", cursor, err)
		}

		added := 0
		for _, c := range page {
			if c.Time < cursor || c.Time >= end {
				continue
			}
			if n := len(out); n > 0 && c.Time <= out[n-1].Time {
				continue
			}
			out = append(out, c)
			added++
		}
		if added == 0 {
			break
		}
		cursor = out[len(out)-1].Time + step.Milliseconds()
	}

	l.logger.Info("Candles loaded",
		zap.String("symbol", l.symbol),
		zap.String("interval", l.interval),
		zap.Int("count", len(out)))
	return out, nil
}
