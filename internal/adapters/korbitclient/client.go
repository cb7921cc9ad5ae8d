// Package korbitclient implements the trading gateway against the Korbit v2
// REST API. It also exposes Korbit's candle endpoint so the gateway can serve
// as a market data provider when Binance is not configured.
package korbitclient

import (
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
	"strings"
	"time"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

const (
	defaultBaseURL = "https://api.korbit.co.kr"
	defaultTimeout = 10 * time.Second

	apiKeyHeader = "X-KAPI-KEY"
)

// Config holds configuration for the Korbit client adapter.
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string        // defaults to the production API
	Timeout    time.Duration // per-request timeout, defaults to 10s
	HTTPClient *http.Client  // optional, mainly for tests
	Logger     ports.Logger
}

// Client implements ports.TradingGateway and ports.MarketDataProvider using
// the Korbit v2 REST API.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     ports.Logger
}

// New creates a new Korbit client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Korbit client: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		// Public endpoints (tickers, candles) still work; private calls
		// will fail with an authentication error.
		cfg.Logger.Warn(context.Background(), "Korbit APIKey or APISecret is empty, only public endpoints will work")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// sign produces the hex HMAC-SHA256 of the query string with the API secret,
// as required by Korbit's private v2 endpoints.
func (c *Client) sign(queryString string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedParams appends the current millisecond timestamp and signature to
// the given params.
func (c *Client) signedParams(params url.Values) url.Values {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("signature", c.sign(params.Encode()))
	return params
}

// --- Wire payloads ---

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type balanceEntry struct {
	Currency        string `json:"currency"`
	Balance         string `json:"balance"`
	Available       string `json:"available"`
	TradeInUse      string `json:"tradeInUse"`
	WithdrawalInUse string `json:"withdrawalInUse"`
}

type balanceResponse struct {
	Success bool           `json:"success"`
	Data    []balanceEntry `json:"data"`
	Error   *apiError      `json:"error"`
}

type tickerEntry struct {
	Symbol       string `json:"symbol"`
	Open         string `json:"open"`
	High         string `json:"high"`
	Low          string `json:"low"`
	Close        string `json:"close"`
	Volume       string `json:"volume"`
	BestBidPrice string `json:"bestBidPrice"`
	BestAskPrice string `json:"bestAskPrice"`
}

type tickerResponse struct {
	Success bool          `json:"success"`
	Data    []tickerEntry `json:"data"`
	Error   *apiError     `json:"error"`
}

type candleEntry struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

type candleResponse struct {
	Success bool          `json:"success"`
	Data    []candleEntry `json:"data"`
	Error   *apiError     `json:"error"`
}

type orderData struct {
	OrderID json.Number `json:"orderId"`
}

type orderResponse struct {
	Success bool      `json:"success"`
	Data    orderData `json:"data"`
	Error   *apiError `json:"error"`
}

// --- Transport helpers ---

// do issues the request and decodes the JSON body into out, translating
// transport and HTTP-status failures into standard ports errors.
func (c *Client) do(ctx context.Context, req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("read response body: %w", err), op)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			statusErr = fmt.Errorf("%w: %w", ports.ErrRateLimited, statusErr)
		case http.StatusUnauthorized, http.StatusForbidden:
			statusErr = fmt.Errorf("%w: %w", ports.ErrAuthenticationFailed, statusErr)
		case http.StatusBadRequest:
			statusErr = fmt.Errorf("%w: %w", ports.ErrInvalidRequest, statusErr)
		default:
			statusErr = fmt.Errorf("%w: %w", ports.ErrExchangeUnavailable, statusErr)
		}
		return c.handleError(ctx, statusErr, op)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.handleError(ctx, fmt.Errorf("decode response: %w", err), op)
	}
	return nil
}

// handleError classifies an error, logs it with its operation, and wraps it
// with a standard ports error when it is not already classified.
func (c *Client) handleError(ctx context.Context, err error, op string) error {
	var finalErr error
	switch {
	case errors.Is(err, ports.ErrRateLimited),
		errors.Is(err, ports.ErrAuthenticationFailed),
		errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, ports.ErrExchangeUnavailable),
		errors.Is(err, ports.ErrOrderRejected):
		finalErr = fmt.Errorf("%s failed: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", op, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %w", op, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", op, ports.ErrConnectionFailed, err)
	}
	c.logger.Error(ctx, err, op+" failed", map[string]interface{}{"operation": op})
	return finalErr
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// --- ports.TradingGateway ---

// GetBalances retrieves all currency balances, keyed by lowercase currency
// code.
func (c *Client) GetBalances(ctx context.Context) (map[string]domain.Balance, error) {
	op := "GetBalances"

	params := c.signedParams(url.Values{})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/balance?"+params.Encode(), nil)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	var payload balanceResponse
	if err := c.do(ctx, req, op, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, c.handleError(ctx, apiFailure(payload.Error), op)
	}

	balances := make(map[string]domain.Balance, len(payload.Data))
	for _, entry := range payload.Data {
		currency := strings.ToLower(entry.Currency)
		balances[currency] = domain.Balance{
			Currency:        currency,
			Total:           parseAmount(entry.Balance),
			Available:       parseAmount(entry.Available),
			TradeInUse:      parseAmount(entry.TradeInUse),
			WithdrawalInUse: parseAmount(entry.WithdrawalInUse),
		}
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"currencies": len(balances)})
	return balances, nil
}

// GetTicker retrieves the current price report for a symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	op := "GetTicker"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/tickers?symbol="+url.QueryEscape(symbol), nil)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var payload tickerResponse
	if err := c.do(ctx, req, op, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || len(payload.Data) == 0 {
		return nil, c.handleError(ctx, apiFailure(payload.Error), op)
	}

	entry := payload.Data[0]
	return &domain.Ticker{
		Symbol:  symbol,
		Open:    parseAmount(entry.Open),
		High:    parseAmount(entry.High),
		Low:     parseAmount(entry.Low),
		Close:   parseAmount(entry.Close),
		Volume:  parseAmount(entry.Volume),
		BestBid: parseAmount(entry.BestBidPrice),
		BestAsk: parseAmount(entry.BestAskPrice),
	}, nil
}

// PlaceMarketOrder submits a market order. Buys are sized with the quote
// currency amount (amt), sells with the base currency quantity (qty, six
// decimal places). Market orders always use immediate-or-cancel.
func (c *Client) PlaceMarketOrder(ctx context.Context, order domain.Order) (*ports.OrderResult, error) {
	op := "PlaceMarketOrder"

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("orderType", string(domain.OrderTypeMarket))
	params.Set("timeInForce", "ioc")
	switch order.Side {
	case domain.Buy:
		if order.Amount <= 0 {
			return nil, c.handleError(ctx, fmt.Errorf("%w: market buy requires a positive quote amount", ports.ErrInvalidRequest), op)
		}
		params.Set("amt", strconv.FormatInt(int64(order.Amount), 10))
	case domain.Sell:
		if order.Quantity <= 0 {
			return nil, c.handleError(ctx, fmt.Errorf("%w: market sell requires a positive base quantity", ports.ErrInvalidRequest), op)
		}
		params.Set("qty", strconv.FormatFloat(order.Quantity, 'f', 6, 64))
	default:
		return nil, c.handleError(ctx, fmt.Errorf("%w: unknown order side %q", ports.ErrInvalidRequest, order.Side), op)
	}
	params = c.signedParams(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/orders", strings.NewReader(params.Encode()))
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload orderResponse
	if err := c.do(ctx, req, op, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrOrderRejected, apiFailure(payload.Error)), op)
	}

	result := &ports.OrderResult{OrderID: payload.Data.OrderID.String(), Accepted: true}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": order.Symbol, "side": order.Side, "orderID": result.OrderID,
	})
	return result, nil
}

// --- ports.MarketDataProvider ---

// FetchCandles retrieves up to limit OHLCV candles for the symbol, returned
// time-ascending.
func (c *Client) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	op := "FetchCandles"

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/candles?"+params.Encode(), nil)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var payload candleResponse
	if err := c.do(ctx, req, op, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrDataUnavailable, apiFailure(payload.Error)), op)
	}

	candles := make([]domain.Candle, 0, len(payload.Data))
	for _, entry := range payload.Data {
		candles = append(candles, domain.Candle{
			OpenTime: time.UnixMilli(entry.Timestamp).UTC(),
			Open:     parseAmount(entry.Open),
			High:     parseAmount(entry.High),
			Low:      parseAmount(entry.Low),
			Close:    parseAmount(entry.Close),
			Volume:   parseAmount(entry.Volume),
		})
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "count": len(candles)})
	return candles, nil
}

// apiFailure renders the API-level error payload as a Go error.
func apiFailure(apiErr *apiError) error {
	if apiErr == nil {
		return fmt.Errorf("API reported failure without an error payload")
	}
	return fmt.Errorf("API error %d: %s", apiErr.Code, apiErr.Message)
}
