package domain

import (
	"math"
	"time"
)

// SignalAction is the discrete trading decision derived from indicators.
type SignalAction string

const (
	ActionBuy  SignalAction = "buy"
	ActionSell SignalAction = "sell"
	ActionHold SignalAction = "hold"
)

// RiskLevel tags a signal with how trustworthy its inputs were.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IndicatorSnapshot holds the latest value of each technical indicator.
// Values derived from an insufficient history window are NaN.
type IndicatorSnapshot struct {
	RSI        float64
	EMA        float64
	MACDLine   float64
	MACDSignal float64
}

// Valid reports whether every indicator in the snapshot is defined.
func (s IndicatorSnapshot) Valid() bool {
	return !math.IsNaN(s.RSI) && !math.IsNaN(s.EMA) &&
		!math.IsNaN(s.MACDLine) && !math.IsNaN(s.MACDSignal)
}

// TradingSignal is the output of one signal generation pass. It is produced
// fresh each cycle and never mutated afterwards.
type TradingSignal struct {
	Action     SignalAction
	Confidence float64 // 0.0 .. 1.0
	Reason     string  // human-readable, embeds the indicator values used
	RiskLevel  RiskLevel
	Timestamp  time.Time
}
