package ports

import (
	"context"

	"cryptoRebalancer/internal/domain"
)

// OrderResult carries the essential details the gateway reports after an
// order submission is accepted.
type OrderResult struct {
	OrderID  string // exchange-assigned order ID
	Accepted bool
}

// MarketDataProvider returns OHLCV candle series for a symbol. Candles are
// ordered time-ascending; the last element is the most recent bar.
type MarketDataProvider interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// TradingGateway executes orders and reports account state on the exchange
// the bot actually trades on.
type TradingGateway interface {
	// GetBalances retrieves all currency balances, keyed by lowercase
	// currency code (e.g. "krw", "btc").
	GetBalances(ctx context.Context) (map[string]domain.Balance, error)

	// GetTicker retrieves the current price report for a symbol.
	GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error)

	// PlaceMarketOrder submits a market order. A gateway-side refusal is
	// returned as an error wrapping ErrOrderRejected.
	PlaceMarketOrder(ctx context.Context, order domain.Order) (*OrderResult, error)
}
