package korbitclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		APIKey:    "test-key",
		APISecret: "test-secret",
		BaseURL:   server.URL,
		Logger:    &mockLogger{},
	})
	require.NoError(t, err)
	return client, server
}

func TestNew(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := New(Config{APIKey: "k", APISecret: "s"})
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
	})

	t.Run("base URL trailing slash is trimmed", func(t *testing.T) {
		c, err := New(Config{APIKey: "k", APISecret: "s", BaseURL: "https://example.com/", Logger: &mockLogger{}})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", c.baseURL)
	})

	t.Run("empty credentials are allowed for public endpoints", func(t *testing.T) {
		c, err := New(Config{Logger: &mockLogger{}})
		require.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestSign(t *testing.T) {
	c, err := New(Config{APIKey: "k", APISecret: "secret", Logger: &mockLogger{}})
	require.NoError(t, err)

	query := "symbol=btc_krw&timestamp=1700000000000"
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(query))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, c.sign(query))
}

func TestGetBalances(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-KAPI-KEY")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"currency": "KRW", "balance": "500000.5", "available": "400000", "tradeInUse": "100000.5", "withdrawalInUse": "0"},
				{"currency": "BTC", "balance": "0.02", "available": "0.015", "tradeInUse": "0.005", "withdrawalInUse": "0"}
			]
		}`))
	}))

	balances, err := client.GetBalances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/v2/balance", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.NotEmpty(t, gotQuery.Get("timestamp"))
	assert.NotEmpty(t, gotQuery.Get("signature"))

	require.Len(t, balances, 2)
	krw := balances["krw"]
	assert.Equal(t, "krw", krw.Currency)
	assert.Equal(t, 500000.5, krw.Total)
	assert.Equal(t, 400000.0, krw.Available)
	assert.Equal(t, 100000.5, krw.TradeInUse)
	btc := balances["btc"]
	assert.Equal(t, 0.015, btc.Available)
}

func TestGetBalancesAPIFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": {"code": 4001, "message": "invalid key"}}`))
	}))

	_, err := client.GetBalances(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4001")
}

func TestGetTicker(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/tickers", r.URL.Path)
		assert.Equal(t, "btc_krw", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"success": true,
			"data": [{"symbol": "btc_krw", "open": "59000000", "high": "61000000", "low": "58000000",
				"close": "60000000", "volume": "12.5", "bestBidPrice": "59990000", "bestAskPrice": "60010000"}]
		}`))
	}))

	ticker, err := client.GetTicker(context.Background(), "btc_krw")
	require.NoError(t, err)
	assert.Equal(t, "btc_krw", ticker.Symbol)
	assert.Equal(t, 60000000.0, ticker.Close)
	assert.Equal(t, 59990000.0, ticker.BestBid)
	assert.Equal(t, 60010000.0, ticker.BestAsk)
}

func TestGetTickerEmptyData(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": []}`))
	}))

	_, err := client.GetTicker(context.Background(), "btc_krw")
	require.Error(t, err)
}

func TestPlaceMarketOrder(t *testing.T) {
	tests := []struct {
		name       string
		order      domain.Order
		wantParams map[string]string
		absent     []string
	}{
		{
			name:  "market buy sends integer quote amount",
			order: domain.Order{Symbol: "btc_krw", Side: domain.Buy, Type: domain.OrderTypeMarket, Amount: 80000.9},
			wantParams: map[string]string{
				"symbol":      "btc_krw",
				"side":        "buy",
				"orderType":   "market",
				"timeInForce": "ioc",
				"amt":         "80000",
			},
			absent: []string{"qty"},
		},
		{
			name:  "market sell sends six decimal base quantity",
			order: domain.Order{Symbol: "eth_krw", Side: domain.Sell, Type: domain.OrderTypeMarket, Quantity: 0.12345678},
			wantParams: map[string]string{
				"symbol":      "eth_krw",
				"side":        "sell",
				"orderType":   "market",
				"timeInForce": "ioc",
				"qty":         "0.123457",
			},
			absent: []string{"amt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForm url.Values
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v2/orders", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("X-KAPI-KEY"))
				assert.NoError(t, r.ParseForm())
				gotForm = r.PostForm
				w.Write([]byte(`{"success": true, "data": {"orderId": 987654}}`))
			}))

			result, err := client.PlaceMarketOrder(context.Background(), tt.order)
			require.NoError(t, err)
			assert.True(t, result.Accepted)
			assert.Equal(t, "987654", result.OrderID)

			for key, want := range tt.wantParams {
				assert.Equal(t, want, gotForm.Get(key), "param %s", key)
			}
			for _, key := range tt.absent {
				assert.Empty(t, gotForm.Get(key), "param %s should be absent", key)
			}
			assert.NotEmpty(t, gotForm.Get("timestamp"))
			assert.NotEmpty(t, gotForm.Get("signature"))
		})
	}
}

func TestPlaceMarketOrderValidation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))

	t.Run("buy without amount", func(t *testing.T) {
		_, err := client.PlaceMarketOrder(context.Background(), domain.Order{
			Symbol: "btc_krw", Side: domain.Buy, Type: domain.OrderTypeMarket,
		})
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	})

	t.Run("sell without quantity", func(t *testing.T) {
		_, err := client.PlaceMarketOrder(context.Background(), domain.Order{
			Symbol: "btc_krw", Side: domain.Sell, Type: domain.OrderTypeMarket,
		})
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	})

	t.Run("unknown side", func(t *testing.T) {
		_, err := client.PlaceMarketOrder(context.Background(), domain.Order{
			Symbol: "btc_krw", Side: "short", Type: domain.OrderTypeMarket, Amount: 1,
		})
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	})
}

func TestPlaceMarketOrderRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": {"code": 5001, "message": "insufficient funds"}}`))
	}))

	_, err := client.PlaceMarketOrder(context.Background(), domain.Order{
		Symbol: "btc_krw", Side: domain.Buy, Type: domain.OrderTypeMarket, Amount: 80000,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrOrderRejected)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestFetchCandles(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/candles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "btc_krw", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("interval"))
		assert.Equal(t, "2", q.Get("limit"))
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"timestamp": 1700000000000, "open": "100", "high": "110", "low": "90", "close": "105", "volume": "3"},
				{"timestamp": 1700000060000, "open": "105", "high": "112", "low": "104", "close": "111", "volume": "2"}
			]
		}`))
	}))

	candles, err := client.FetchCandles(context.Background(), "btc_krw", "1m", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), candles[0].OpenTime)
	assert.Equal(t, 105.0, candles[0].Close)
	assert.Equal(t, 111.0, candles[1].Close)
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ports.ErrRateLimited},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ports.ErrAuthenticationFailed},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ports.ErrAuthenticationFailed},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ports.ErrInvalidRequest},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ports.ErrExchangeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := client.GetTicker(context.Background(), "btc_krw")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetTicker(ctx, "btc_krw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}
