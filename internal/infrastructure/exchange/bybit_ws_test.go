package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTickerServer(t *testing.T, messages ...string) (*httptest.Server, <-chan []string) {
	t.Helper()
	subs := make(chan []string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub struct {
			Op   string   `json:"op"`
			Args []string `json:"args"`
		}
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subs <- sub.Args

		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, subs
}

func TestBybitAdapter_PriceStream_FeedsLastPrice(t *testing.T) {
	srv, subs := newTickerServer(t,
		`{"success":true,"op":"subscribe"}`,
		`{"topic":"tickers.BTCUSDT","type":"snapshot","data":{"symbol":"BTCUSDT","lastPrice":"61000.5"}}`,
	)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	// REST endpoint that always fails, so a price can only come from the stream.
	b := NewBybitAdapter("key", "secret", "http://127.0.0.1:1", wsURL, nil)

	var mu sync.Mutex
	var seen []float64
	b.OnPriceUpdate(func(symbol string, price float64) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, price)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.RunPriceStream(ctx, []string{"BTCUSDT"})

	select {
	case args := <-subs:
		assert.Equal(t, []string{"tickers.BTCUSDT"}, args)
	case <-time.After(5 * time.Second):
		t.Fatal("no subscription received")
	}

	require.Eventually(t, func() bool {
		_, ok := b.streamedPrice("BTCUSDT")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	price, err := b.GetLastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 61000.5, price)

	mu.Lock()
	assert.Equal(t, []float64{61000.5}, seen)
	mu.Unlock()
}

func TestBybitAdapter_StalePriceFallsBackToREST(t *testing.T) {
	_, srv := newFakeBybit(t, map[string]string{
		"/v5/market/tickers": `{"retCode":0,"result":{"list":[{"lastPrice":"50000"}]}}`,
	})
	b := NewBybitAdapter("key", "secret", srv.URL, "", nil)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.timeNow = func() time.Time { return now }
	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","data":{"lastPrice":"61000"}}`))

	price, err := b.GetLastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 61000.0, price)

	now = now.Add(10 * time.Second)
	price, err = b.GetLastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, price)
}

func TestBybitAdapter_HandleMessage_IgnoresNoise(t *testing.T) {
	b := NewBybitAdapter("key", "secret", "", "", nil)

	b.handleMessage([]byte(`not json`))
	b.handleMessage([]byte(`{"success":true,"op":"subscribe"}`))
	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","type":"delta","data":{"symbol":"BTCUSDT","fundingRate":"0.0001"}}`))

	_, ok := b.streamedPrice("BTCUSDT")
	assert.False(t, ok)
}
