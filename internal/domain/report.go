package domain

import "time"

// CycleOutcome classifies what the rebalancer did with a cycle's signal.
type CycleOutcome string

const (
	OutcomeHold     CycleOutcome = "hold"     // signal was hold, nothing to size
	OutcomeSkipped  CycleOutcome = "skipped"  // actionable signal, sizer declined
	OutcomeExecuted CycleOutcome = "executed" // order placed and accepted
	OutcomeRejected CycleOutcome = "rejected" // order placed and refused by the gateway
)

// CycleReport is the per-cycle status record: portfolio state, the signal
// that was generated, and what was done about it.
type CycleReport struct {
	Symbol     string
	CycleTime  time.Time
	Price      float64
	TotalValue float64
	CashRatio  float64
	AssetRatio float64
	Action     SignalAction
	Confidence float64
	RiskLevel  RiskLevel
	Reason     string
	Outcome    CycleOutcome
	Detail     string // skip reason, order ID, or gateway error text
}
