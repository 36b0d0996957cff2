package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/reversal_bot/internal/domain"
	"go.uber.org/zap"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/linear"

	category   = "linear"
	recvWindow = 5000

	// Returned when the requested setting is already in place.
	retLeverageNotModified   = 110043
	retMarginModeNotModified = 110026
)

// APIError is a non-zero retCode answered by Bybit.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit error %d: %s", e.Code, e.Msg)
}

type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

type cachedPrice struct {
	price float64
	at    time.Time
}

type BybitAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	coin      string
	client    *http.Client
	logger    *zap.Logger

	wsConn      *websocket.Conn
	callbacks   []func(symbol string, price float64)
	prices      map[string]cachedPrice
	priceMaxAge time.Duration
	mu          sync.Mutex

	timeNow func() time.Time
}

func NewBybitAdapter(apiKey, apiSecret, baseURL, wsURL string, logger *zap.Logger) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if wsURL == "" {
		wsURL = BybitWSURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BybitAdapter{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		baseURL:     baseURL,
		wsURL:       wsURL,
		coin:        "USDT",
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		prices:      make(map[string]cachedPrice),
		priceMaxAge: 5 * time.Second,
		timeNow:     time.Now,
	}
}

// SetPriceMaxAge bounds how old a streamed price may be before GetLastPrice
// falls back to REST. Zero disables the stream cache.
func (b *BybitAdapter) SetPriceMaxAge(d time.Duration) {
	if d <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.priceMaxAge = d
}

// --- REST API ---

func (b *BybitAdapter) sign(params string, timestamp int64) string {
	// timestamp + apiKey + recvWindow + params
	toSign := fmt.Sprintf("%d%s%d%s", timestamp, b.apiKey, recvWindow, params)
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

// sendRequest signs and sends a request and returns the result payload of a
// successful (retCode 0) response.
func (b *BybitAdapter) sendRequest(ctx context.Context, method, path string, query url.Values, payload map[string]interface{}) (json.RawMessage, error) {
	timestamp := b.timeNow().UnixMilli()

	var body []byte
	paramsStr := query.Encode()
	target := b.baseURL + path
	if paramsStr != "" {
		target += "?" + paramsStr
	}
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = jsonBody
		paramsStr = string(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-BAPI-API-KEY", b.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-BAPI-SIGN", b.sign(paramsStr, timestamp))
	req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(recvWindow))
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	if env.RetCode != 0 {
		return nil, &APIError{Code: env.RetCode, Msg: env.RetMsg}
	}
	return env.Result, nil
}

func (b *BybitAdapter) GetFreeBalance(ctx context.Context) (float64, error) {
	query := url.Values{"accountType": {"UNIFIED"}, "coin": {b.coin}}
	raw, err := b.sendRequest(ctx, http.MethodGet, "/v5/account/wallet-balance", query, nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		List []struct {
			TotalAvailableBalance string `json:"totalAvailableBalance"`
			Coin                  []struct {
				Coin                string `json:"coin"`
				WalletBalance       string `json:"walletBalance"`
				AvailableToWithdraw string `json:"availableToWithdraw"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no wallet for %s", b.coin)
	}

	account := result.List[0]
	if account.TotalAvailableBalance != "" {
		return strconv.ParseFloat(account.TotalAvailableBalance, 64)
	}
	for _, c := range account.Coin {
		if c.Coin != b.coin {
			continue
		}
		free := c.AvailableToWithdraw
		if free == "" {
			free = c.WalletBalance
		}
		return strconv.ParseFloat(free, 64)
	}
	return 0, fmt.Errorf("coin %s not in wallet", b.coin)
}

// GetLastPrice prefers a fresh price from the ticker stream and falls back to REST.
func (b *BybitAdapter) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	if price, ok := b.streamedPrice(symbol); ok {
		return price, nil
	}

	query := url.Values{"category": {category}, "symbol": {symbol}}
	raw, err := b.sendRequest(ctx, http.MethodGet, "/v5/market/tickers", query, nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("symbol not found: %s", symbol)
	}

	price, err := strconv.ParseFloat(result.List[0].LastPrice, 64)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("no last price for %s", symbol)
	}
	return price, nil
}

func (b *BybitAdapter) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	payload := map[string]interface{}{
		"category":     category,
		"symbol":       symbol,
		"buyLeverage":  strconv.Itoa(leverage),
		"sellLeverage": strconv.Itoa(leverage),
	}
	_, err := b.sendRequest(ctx, http.MethodPost, "/v5/position/set-leverage", nil, payload)
	if isAPICode(err, retLeverageNotModified) {
		return nil
	}
	return err
}

func (b *BybitAdapter) SetMarginMode(ctx context.Context, symbol string, mode domain.MarginType) error {
	// 0: cross margin, 1: isolated margin
	tradeMode := 0
	if mode == domain.MarginIsolated {
		tradeMode = 1
	}

	// The endpoint insists on leverage values; keep whatever is current.
	// Callers assert leverage after this call.
	lev := "1"
	if pos, err := b.GetPosition(ctx, symbol); err == nil && pos.Leverage > 0 {
		lev = strconv.Itoa(pos.Leverage)
	}

	payload := map[string]interface{}{
		"category":     category,
		"symbol":       symbol,
		"tradeMode":    tradeMode,
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}
	_, err := b.sendRequest(ctx, http.MethodPost, "/v5/position/switch-isolated", nil, payload)
	if isAPICode(err, retMarginModeNotModified) {
		return nil
	}
	return err
}

func (b *BybitAdapter) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity: %g", req.Quantity)
	}

	payload := map[string]interface{}{
		"category":  category,
		"symbol":    req.Symbol,
		"side":      string(req.Side),
		"orderType": "Market",
		"qty":       strconv.FormatFloat(req.Quantity, 'f', -1, 64),
	}
	if req.ReduceOnly {
		payload["reduceOnly"] = true
	}
	if req.ClientOrderID != "" {
		payload["orderLinkId"] = req.ClientOrderID
	}

	raw, err := b.sendRequest(ctx, http.MethodPost, "/v5/order/create", nil, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &domain.OrderAck{
		OrderID:       result.OrderID,
		ClientOrderID: result.OrderLinkID,
		CreatedAt:     b.timeNow().UTC(),
	}, nil
}

func (b *BybitAdapter) GetPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	query := url.Values{"category": {category}, "symbol": {symbol}}
	raw, err := b.sendRequest(ctx, http.MethodGet, "/v5/position/list", query, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			MarkPrice     string `json:"markPrice"`
			UnrealisedPnl string `json:"unrealisedPnl"`
			Leverage      string `json:"leverage"`
			TradeMode     int    `json:"tradeMode"` // 0: cross margin, 1: isolated margin
		} `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}

	// One-way mode: at most one entry carries a size.
	for _, p := range result.List {
		size, err := strconv.ParseFloat(p.Size, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing position size %q: %w", p.Size, err)
		}
		if size <= 0 {
			continue
		}

		entry, _ := strconv.ParseFloat(p.AvgPrice, 64)
		curr, _ := strconv.ParseFloat(p.MarkPrice, 64)
		pnl, _ := strconv.ParseFloat(p.UnrealisedPnl, 64)
		lev, _ := strconv.ParseFloat(p.Leverage, 64)

		side := domain.SideLong
		if p.Side == "Sell" {
			side = domain.SideShort
		}
		marginType := domain.MarginCross
		if p.TradeMode == 1 {
			marginType = domain.MarginIsolated
		}

		return &domain.Position{
			Exchange:      "bybit",
			Symbol:        p.Symbol,
			Side:          side,
			Size:          size,
			EntryPrice:    entry,
			CurrentPrice:  curr,
			UnrealizedPnL: pnl,
			Leverage:      int(lev),
			MarginType:    marginType,
		}, nil
	}

	pos := domain.FlatPosition(symbol)
	pos.Exchange = "bybit"
	if len(result.List) > 0 {
		lev, _ := strconv.ParseFloat(result.List[0].Leverage, 64)
		pos.Leverage = int(lev)
	}
	return pos, nil
}

// GetCandles returns up to limit candles opening at or after since, oldest first.
func (b *BybitAdapter) GetCandles(ctx context.Context, symbol, interval string, since int64, limit int) ([]domain.Candle, error) {
	step, err := domain.IntervalDuration(interval)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	// Bybit answers with the newest candles of [start, end]; bound end so the
	// page starts at since.
	end := since + int64(limit)*step.Milliseconds() - 1
	query := url.Values{
		"category": {category},
		"symbol":   {symbol},
		"interval": {interval},
		"start":    {strconv.FormatInt(since, 10)},
		"end":      {strconv.FormatInt(end, 10)},
		"limit":    {strconv.Itoa(limit)},
	}
	raw, err := b.sendRequest(ctx, http.MethodGet, "/v5/market/kline", query, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(result.List))
	for _, row := range result.List {
		// Format: [startTime, open, high, low, close, volume, turnover]
		if len(row) < 6 {
			continue
		}

		c, err := parseKlineRow(row)
		if err != nil {
			b.logger.Warn("Skipping malformed kline", zap.String("symbol", symbol), zap.Strings("row", row), zap.Error(err))
			continue
		}
		candles = append(candles, c)
	}

	// Bybit returns newest first.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

func isAPICode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func parseKlineRow(row []string) (domain.Candle, error) {
	var c domain.Candle
	var err error
	if c.Time, err = strconv.ParseInt(row[0], 10, 64); err != nil {
		return c, fmt.Errorf("start time: %w", err)
	}
	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, f := range fields {
		if *f, err = strconv.ParseFloat(row[i+1], 64); err != nil {
			return c, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	if c.Open <= 0 || c.Close <= 0 {
		return c, fmt.Errorf("non-positive price open=%g close=%g", c.Open, c.Close)
	}
	return c, nil
}
