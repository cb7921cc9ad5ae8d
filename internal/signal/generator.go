// Package signal maps an indicator snapshot plus the latest price to a
// discrete trading decision with confidence and risk tag.
package signal

import (
	"context"
	"fmt"
	"time"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/indicators"
	"cryptoRebalancer/internal/ports"
)

// Config holds the indicator parameters the generator evaluates.
type Config struct {
	RSIPeriod     int     // e.g. 14
	RSIOversold   float64 // e.g. 30.0
	RSIOverbought float64 // e.g. 70.0
	EMAPeriod     int     // e.g. 20
	MACDFast      int     // e.g. 12
	MACDSlow      int     // e.g. 26
	MACDSignal    int     // e.g. 9
}

// DefaultConfig returns the stock RSI(14)/EMA(20)/MACD(12,26,9) parameters.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:     14,
		RSIOversold:   30.0,
		RSIOverbought: 70.0,
		EMAPeriod:     20,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
	}
}

// Generator produces one TradingSignal per candle series. It never returns
// an error: degraded inputs become a zero-confidence hold.
type Generator struct {
	cfg    Config
	logger ports.Logger
}

// NewGenerator creates a Generator, validating the indicator parameters.
func NewGenerator(cfg Config, logger ports.Logger) (*Generator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for signal generator: %w", ports.ErrConfigurationError)
	}
	if cfg.RSIPeriod <= 0 || cfg.EMAPeriod <= 0 || cfg.MACDFast <= 0 || cfg.MACDSlow <= 0 || cfg.MACDSignal <= 0 {
		return nil, fmt.Errorf("indicator periods must be positive: %w", ports.ErrConfigurationError)
	}
	if cfg.MACDFast >= cfg.MACDSlow {
		return nil, fmt.Errorf("MACD fast period must be less than slow period: %w", ports.ErrConfigurationError)
	}
	if cfg.RSIOverbought <= cfg.RSIOversold || cfg.RSIOversold < 0 || cfg.RSIOverbought > 100 {
		return nil, fmt.Errorf("invalid RSI thresholds (oversold < overbought, within 0-100): %w", ports.ErrConfigurationError)
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Generate evaluates the decision table on the latest bar of the series.
func (g *Generator) Generate(ctx context.Context, candles []domain.Candle) domain.TradingSignal {
	now := time.Now().UTC()

	if len(candles) < indicators.MinInformativePoints {
		g.logger.Debug(ctx, "Not enough candles for an informative signal",
			map[string]interface{}{"available": len(candles), "required": indicators.MinInformativePoints})
		return domain.TradingSignal{
			Action:     domain.ActionHold,
			Confidence: 0.0,
			Reason:     fmt.Sprintf("insufficient data: %d candles, need %d", len(candles), indicators.MinInformativePoints),
			RiskLevel:  domain.RiskHigh,
			Timestamp:  now,
		}
	}

	closes := domain.Closes(candles)
	snap := g.latestSnapshot(closes)
	return g.evaluate(snap, closes[len(closes)-1], now)
}

// latestSnapshot computes all indicators over the series and keeps the last
// value of each.
func (g *Generator) latestSnapshot(closes []float64) domain.IndicatorSnapshot {
	rsi := indicators.RSI(closes, g.cfg.RSIPeriod)
	ema := indicators.EMA(closes, g.cfg.EMAPeriod)
	macdLine, signalLine := indicators.MACD(closes, g.cfg.MACDFast, g.cfg.MACDSlow, g.cfg.MACDSignal)

	last := len(closes) - 1
	return domain.IndicatorSnapshot{
		RSI:        rsi[last],
		EMA:        ema[last],
		MACDLine:   macdLine[last],
		MACDSignal: signalLine[last],
	}
}

// evaluate applies the decision table to one indicator snapshot.
func (g *Generator) evaluate(snap domain.IndicatorSnapshot, closePrice float64, ts time.Time) domain.TradingSignal {
	if !snap.Valid() {
		return domain.TradingSignal{
			Action:     domain.ActionHold,
			Confidence: 0.0,
			Reason:     "indicator failure: undefined indicator value",
			RiskLevel:  domain.RiskHigh,
			Timestamp:  ts,
		}
	}

	switch {
	case snap.RSI < g.cfg.RSIOversold && snap.MACDLine > snap.MACDSignal && closePrice > snap.EMA:
		return domain.TradingSignal{
			Action:     domain.ActionBuy,
			Confidence: 0.85,
			Reason:     fmt.Sprintf("RSI: %.2f (oversold), MACD > Signal, Close > EMA%d", snap.RSI, g.cfg.EMAPeriod),
			RiskLevel:  domain.RiskLow,
			Timestamp:  ts,
		}
	case snap.RSI > g.cfg.RSIOverbought && snap.MACDLine < snap.MACDSignal && closePrice < snap.EMA:
		return domain.TradingSignal{
			Action:     domain.ActionSell,
			Confidence: 0.85,
			Reason:     fmt.Sprintf("RSI: %.2f (overbought), MACD < Signal, Close < EMA%d", snap.RSI, g.cfg.EMAPeriod),
			RiskLevel:  domain.RiskLow,
			Timestamp:  ts,
		}
	default:
		return domain.TradingSignal{
			Action:     domain.ActionHold,
			Confidence: 0.6,
			Reason:     fmt.Sprintf("RSI: %.2f, MACD: %.6f, Signal: %.6f", snap.RSI, snap.MACDLine, snap.MACDSignal),
			RiskLevel:  domain.RiskMedium,
			Timestamp:  ts,
		}
	}
}
