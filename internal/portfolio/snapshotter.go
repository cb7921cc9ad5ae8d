// Package portfolio aggregates raw exchange balances and the current price
// into a normalized cash/asset view of the account.
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

// SplitSymbol parses an exchange-native trading pair of the form
// "base_quote" (e.g. "btc_krw") into its base and quote currencies.
func SplitSymbol(symbol string) (base, quote string, err error) {
	parts := strings.Split(strings.ToLower(symbol), "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("symbol %q is not of the form base_quote: %w", symbol, ports.ErrInvalidRequest)
	}
	return parts[0], parts[1], nil
}

// Snapshotter builds PortfolioSnapshots from live gateway queries.
type Snapshotter struct {
	gateway ports.TradingGateway
	logger  ports.Logger
}

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter(gateway ports.TradingGateway, logger ports.Logger) (*Snapshotter, error) {
	if gateway == nil || logger == nil {
		return nil, fmt.Errorf("gateway and logger are required for snapshotter: %w", ports.ErrConfigurationError)
	}
	return &Snapshotter{gateway: gateway, logger: logger}, nil
}

// Snapshot queries balances and the current price and computes cash/asset
// ratios. A failed balance or price query is returned as an error wrapping
// ports.ErrDataUnavailable; the caller decides how to degrade.
func (s *Snapshotter) Snapshot(ctx context.Context, symbol string) (*domain.PortfolioSnapshot, error) {
	base, quote, err := SplitSymbol(symbol)
	if err != nil {
		return nil, err
	}

	balances, err := s.gateway.GetBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("balance query for %s: %w: %w", symbol, ports.ErrDataUnavailable, err)
	}

	ticker, err := s.gateway.GetTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("price query for %s: %w: %w", symbol, ports.ErrDataUnavailable, err)
	}

	cash := balances[quote].Available
	asset := balances[base].Available
	assetValue := asset * ticker.Close

	snap := &domain.PortfolioSnapshot{
		CashBalance:  cash,
		AssetBalance: asset,
		AssetValue:   assetValue,
		TotalValue:   cash + assetValue,
	}
	// Zero total value leaves both ratios at 0 rather than dividing by zero.
	if snap.TotalValue > 0 {
		snap.CashRatio = snap.CashBalance / snap.TotalValue
		snap.AssetRatio = snap.AssetValue / snap.TotalValue
	}

	s.logger.Debug(ctx, "Portfolio snapshot computed", map[string]interface{}{
		"symbol":     symbol,
		"cash":       snap.CashBalance,
		"asset":      snap.AssetBalance,
		"totalValue": snap.TotalValue,
		"cashRatio":  snap.CashRatio,
		"assetRatio": snap.AssetRatio,
	})
	return snap, nil
}
