// Package binanceclient implements the market data provider on the Binance
// spot API. The bot trades KRW pairs on Korbit but computes its indicators
// from the far more liquid Binance candles, so Korbit symbols are mapped to
// Binance trading pairs before fetching.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

// defaultSymbolMap maps the Korbit trading pairs the bot rebalances to the
// Binance pairs used as their candle source.
var defaultSymbolMap = map[string]string{
	"btc_krw":  "BTCUSDT",
	"eth_krw":  "ETHUSDT",
	"usdt_krw": "ADAUSDT",
}

// Config holds configuration specific to the Binance candle provider.
type Config struct {
	APIKey    string // optional, klines are a public endpoint
	SecretKey string
	Logger    ports.Logger
	SymbolMap map[string]string // overrides the default Korbit-to-Binance map
}

// Client implements ports.MarketDataProvider using the go-binance library.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
	symbolMap  map[string]string
}

// New creates a new Binance candle provider.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}

	symbolMap := cfg.SymbolMap
	if symbolMap == nil {
		symbolMap = defaultSymbolMap
	}

	return &Client{
		spotClient: binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger:     cfg.Logger,
		symbolMap:  symbolMap,
	}, nil
}

// FetchCandles retrieves up to limit klines for the mapped symbol, returned
// time-ascending as the Binance API delivers them.
func (c *Client) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	op := "FetchCandles"

	binanceSymbol, ok := c.symbolMap[symbol]
	if !ok {
		// Unmapped symbols are passed through untouched so Binance-native
		// pairs keep working.
		binanceSymbol = symbol
	}

	klines, err := c.spotClient.NewKlinesService().
		Symbol(binanceSymbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op, binanceSymbol)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := translateKline(k)
		if err != nil {
			return nil, c.handleError(ctx, err, op, binanceSymbol)
		}
		candles = append(candles, candle)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol": symbol, "binanceSymbol": binanceSymbol, "interval": interval, "count": len(candles),
	})
	return candles, nil
}

// translateKline converts a Binance kline payload into a domain candle.
func translateKline(k *binance.Kline) (domain.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}

	return domain.Candle{
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, nil
}

// handleError translates common Binance API errors into standardized ports
// errors.
func (c *Client) handleError(ctx context.Context, err error, op, symbol string) error {
	fields := map[string]interface{}{"operation": op, "symbol": symbol, "originalError": err.Error()}

	var mappedErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		switch apiErr.Code {
		case -1003:
			mappedErr = ports.ErrRateLimited
		case -2014, -2015:
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // invalid symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrDataUnavailable
		}
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	default:
		mappedErr = ports.ErrDataUnavailable
	}

	c.logger.Error(ctx, err, op+" failed", fields)
	return fmt.Errorf("%s failed: %w: %w", op, mappedErr, err)
}
