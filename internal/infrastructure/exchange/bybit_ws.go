package exchange

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const tickerTopicPrefix = "tickers."

// OnPriceUpdate registers a callback for every streamed last price.
func (b *BybitAdapter) OnPriceUpdate(callback func(symbol string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

func (b *BybitAdapter) streamedPrice(symbol string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.priceMaxAge <= 0 {
		return 0, false
	}
	p, ok := b.prices[symbol]
	if !ok || b.timeNow().Sub(p.at) > b.priceMaxAge {
		return 0, false
	}
	return p.price, true
}

// RunPriceStream keeps a ticker subscription for symbols alive until ctx is
// done, reconnecting with a capped backoff.
func (b *BybitAdapter) RunPriceStream(ctx context.Context, symbols []string) {
	backoff := time.Second
	for {
		err := b.streamOnce(ctx, symbols)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("Price stream disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (b *BybitAdapter) streamOnce(ctx context.Context, symbols []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.wsURL, nil)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.wsConn = conn
	b.mu.Unlock()

	defer func() {
		conn.Close()
		b.mu.Lock()
		b.wsConn = nil
		b.mu.Unlock()
	}()

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := b.subscribe(conn, symbols); err != nil {
		return err
	}
	b.logger.Info("Price stream connected", zap.Strings("symbols", symbols))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		b.handleMessage(message)
	}
}

func (b *BybitAdapter) subscribe(conn *websocket.Conn, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	args := make([]string, len(symbols))
	for i, s := range symbols {
		args[i] = tickerTopicPrefix + s
	}
	return conn.WriteJSON(map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	})
}

func (b *BybitAdapter) handleMessage(message []byte) {
	var event struct {
		Topic string `json:"topic"`
		Data  struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		b.logger.Debug("Unreadable stream message", zap.Error(err))
		return
	}
	if !strings.HasPrefix(event.Topic, tickerTopicPrefix) || event.Data.LastPrice == "" {
		// Subscription acks and delta updates without a last price.
		return
	}

	price, err := strconv.ParseFloat(event.Data.LastPrice, 64)
	if err != nil || price <= 0 {
		return
	}
	symbol := strings.TrimPrefix(event.Topic, tickerTopicPrefix)

	b.mu.Lock()
	b.prices[symbol] = cachedPrice{price: price, at: b.timeNow()}
	callbacks := make([]func(string, float64), len(b.callbacks))
	copy(callbacks, b.callbacks)
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(symbol, price)
	}
}
