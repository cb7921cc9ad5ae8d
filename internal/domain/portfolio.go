package domain

// Balance describes one currency's holdings on the exchange.
// Amounts reserved for open orders or withdrawals are reported separately
// and are not spendable.
type Balance struct {
	Currency        string
	Total           float64
	Available       float64
	TradeInUse      float64
	WithdrawalInUse float64
}

// Ticker is the exchange's current price report for a symbol.
type Ticker struct {
	Symbol  string
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Volume  float64
	BestBid float64
	BestAsk float64
}

// PortfolioSnapshot is the normalized cash/asset view of the account at one
// point in time. It is recomputed from live balances every cycle and never
// cached across cycles.
type PortfolioSnapshot struct {
	CashBalance  float64 // quote currency, e.g. KRW
	AssetBalance float64 // base currency units, e.g. BTC
	AssetValue   float64 // AssetBalance valued at the current price
	TotalValue   float64 // CashBalance + AssetValue
	CashRatio    float64 // CashBalance / TotalValue, 0 when TotalValue is 0
	AssetRatio   float64 // AssetValue / TotalValue, 0 when TotalValue is 0
}

// RebalanceTarget is the desired cash/asset split, fixed at configuration
// time. CashRatio + AssetRatio must equal 1.
type RebalanceTarget struct {
	CashRatio  float64
	AssetRatio float64
}
