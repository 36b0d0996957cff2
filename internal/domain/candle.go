package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Candle is one OHLCV bar. Time is the bar open time in unix milliseconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (c Candle) OpenTime() time.Time {
	return time.UnixMilli(c.Time).UTC()
}

// IntervalDuration converts a venue kline interval ("1", "5", "60", "D", "W")
// to its duration.
func IntervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "D":
		return 24 * time.Hour, nil
	case "W":
		return 7 * 24 * time.Hour, nil
	}
	minutes, err := strconv.Atoi(interval)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return time.Duration(minutes) * time.Minute, nil
}
