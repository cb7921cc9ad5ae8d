package domain

// OrderSide represents the side of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderType represents how an order is priced. The rebalancer only places
// market orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
)

// Order is a concrete instruction for the trading gateway. Market buys are
// sized in quote currency (Amount), market sells in base currency units
// (Quantity); exactly one of the two is set.
type Order struct {
	Symbol   string
	Side     OrderSide
	Type     OrderType
	Amount   float64 // quote currency to spend (buy orders)
	Quantity float64 // base currency units to sell (sell orders)
}

// Decision is the position sizer's verdict for one cycle: either a single
// order to attempt, or a no-op with the reason it was skipped.
type Decision struct {
	Order      *Order
	SkipReason string
}

// Skipped reports whether the decision carries no order.
func (d Decision) Skipped() bool {
	return d.Order == nil
}
