package ports

import (
	"context"

	"cryptoRebalancer/internal/domain"
)

// SignalGenerator derives a trading signal from a candle series. It never
// fails: degraded inputs yield a hold signal with the degradation recorded
// in the reason text.
type SignalGenerator interface {
	Generate(ctx context.Context, candles []domain.Candle) domain.TradingSignal
}

// PortfolioSnapshotter aggregates live balances and the current price into
// normalized cash/asset ratios for a symbol.
type PortfolioSnapshotter interface {
	Snapshot(ctx context.Context, symbol string) (*domain.PortfolioSnapshot, error)
}

// PositionSizer converts a signal plus portfolio snapshot into at most one
// concrete order for the cycle.
type PositionSizer interface {
	Decide(ctx context.Context, sig domain.TradingSignal, snap *domain.PortfolioSnapshot, price float64) domain.Decision
}
