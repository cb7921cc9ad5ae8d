// Package rebalance converts a trading signal plus portfolio snapshot into a
// concrete order (or a no-op), enforcing the ratio deadband, confidence gate,
// per-cycle cap, and minimum trade size.
package rebalance

import (
	"context"
	"fmt"
	"math"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

// MaxCycleFraction caps how much of the respective balance a single cycle
// may deploy. The cap is fixed: the bot trades at most 10% of the cash
// balance on a buy, or 10% of the asset balance on a sell, per cycle.
const MaxCycleFraction = 0.10

const ratioTolerance = 1e-9

// Config holds the rebalancing policy parameters, fixed at construction.
type Config struct {
	Target              domain.RebalanceTarget
	MinTradeAmount      float64 // quote currency units, e.g. 10000 KRW
	ConfidenceThreshold float64 // signals at or below this are never acted on
}

// Sizer sizes at most one market order per cycle toward the target ratio.
type Sizer struct {
	cfg    Config
	logger ports.Logger
}

// NewSizer creates a Sizer, validating the policy parameters. Invalid
// targets or amounts are configuration errors, fatal at construction and
// never encountered mid-loop.
func NewSizer(cfg Config, logger ports.Logger) (*Sizer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for sizer: %w", ports.ErrConfigurationError)
	}
	if cfg.Target.CashRatio <= 0 || cfg.Target.CashRatio >= 1 {
		return nil, fmt.Errorf("target cash ratio %.4f must be between 0 and 1 (exclusive): %w",
			cfg.Target.CashRatio, ports.ErrConfigurationError)
	}
	if cfg.Target.AssetRatio <= 0 || cfg.Target.AssetRatio >= 1 {
		return nil, fmt.Errorf("target asset ratio %.4f must be between 0 and 1 (exclusive): %w",
			cfg.Target.AssetRatio, ports.ErrConfigurationError)
	}
	if math.Abs(cfg.Target.CashRatio+cfg.Target.AssetRatio-1) > ratioTolerance {
		return nil, fmt.Errorf("target ratios must sum to 1, got %.4f: %w",
			cfg.Target.CashRatio+cfg.Target.AssetRatio, ports.ErrConfigurationError)
	}
	if cfg.MinTradeAmount <= 0 {
		return nil, fmt.Errorf("minimum trade amount must be positive: %w", ports.ErrConfigurationError)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold >= 1 {
		return nil, fmt.Errorf("confidence threshold %.2f must be in [0, 1): %w",
			cfg.ConfidenceThreshold, ports.ErrConfigurationError)
	}
	return &Sizer{cfg: cfg, logger: logger}, nil
}

// Target returns the configured rebalance target.
func (s *Sizer) Target() domain.RebalanceTarget {
	return s.cfg.Target
}

// Decide applies the rebalancing rules to one cycle's signal and snapshot.
// price is the current price in quote currency per base unit.
func (s *Sizer) Decide(ctx context.Context, sig domain.TradingSignal, snap *domain.PortfolioSnapshot, price float64) domain.Decision {
	if sig.Action == domain.ActionHold {
		return domain.Decision{SkipReason: "hold signal"}
	}
	if sig.Confidence <= s.cfg.ConfidenceThreshold {
		reason := fmt.Sprintf("confidence %.2f at or below threshold %.2f",
			sig.Confidence, s.cfg.ConfidenceThreshold)
		s.logger.Info(ctx, "Signal below confidence gate, not acting", map[string]interface{}{
			"action": sig.Action, "confidence": sig.Confidence, "threshold": s.cfg.ConfidenceThreshold,
		})
		return domain.Decision{SkipReason: reason}
	}

	switch sig.Action {
	case domain.ActionBuy:
		return s.sizeBuy(ctx, sig, snap)
	case domain.ActionSell:
		return s.sizeSell(ctx, sig, snap, price)
	default:
		return domain.Decision{SkipReason: fmt.Sprintf("unknown action %q", sig.Action)}
	}
}

func (s *Sizer) sizeBuy(ctx context.Context, sig domain.TradingSignal, snap *domain.PortfolioSnapshot) domain.Decision {
	if snap.CashRatio <= s.cfg.Target.CashRatio {
		return domain.Decision{SkipReason: fmt.Sprintf(
			"cash ratio already at or below target (%.1f%% <= %.1f%%)",
			snap.CashRatio*100, s.cfg.Target.CashRatio*100)}
	}

	ratioDiff := snap.CashRatio - s.cfg.Target.CashRatio
	buyFraction := math.Min(ratioDiff*sig.Confidence, MaxCycleFraction)
	buyAmount := snap.CashBalance * buyFraction

	if buyAmount < s.cfg.MinTradeAmount {
		return domain.Decision{SkipReason: fmt.Sprintf(
			"buy amount below minimum (%.0f < %.0f)", buyAmount, s.cfg.MinTradeAmount)}
	}

	s.logger.Info(ctx, "Sized market buy", map[string]interface{}{
		"ratioDiff": ratioDiff, "fraction": buyFraction, "amount": buyAmount,
	})
	return domain.Decision{Order: &domain.Order{
		Side:   domain.Buy,
		Type:   domain.OrderTypeMarket,
		Amount: buyAmount,
	}}
}

func (s *Sizer) sizeSell(ctx context.Context, sig domain.TradingSignal, snap *domain.PortfolioSnapshot, price float64) domain.Decision {
	if snap.AssetRatio <= s.cfg.Target.AssetRatio {
		return domain.Decision{SkipReason: fmt.Sprintf(
			"asset ratio already at or below target (%.1f%% <= %.1f%%)",
			snap.AssetRatio*100, s.cfg.Target.AssetRatio*100)}
	}

	ratioDiff := snap.AssetRatio - s.cfg.Target.AssetRatio
	sellFraction := math.Min(ratioDiff*sig.Confidence, MaxCycleFraction)
	sellQuantity := snap.AssetBalance * sellFraction

	if sellQuantity*price < s.cfg.MinTradeAmount {
		return domain.Decision{SkipReason: fmt.Sprintf(
			"sell value below minimum (%.0f < %.0f)", sellQuantity*price, s.cfg.MinTradeAmount)}
	}

	s.logger.Info(ctx, "Sized market sell", map[string]interface{}{
		"ratioDiff": ratioDiff, "fraction": sellFraction, "quantity": sellQuantity, "value": sellQuantity * price,
	})
	return domain.Decision{Order: &domain.Order{
		Side:     domain.Sell,
		Type:     domain.OrderTypeMarket,
		Quantity: sellQuantity,
	}}
}
