package models

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// FillPolicy maps to the exchange time_in_force field.
type FillPolicy string

const (
	FillOrKill        FillPolicy = "fok"
	ImmediateOrCancel FillPolicy = "ioc"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderClosed    OrderStatus = "closed"
	OrderCancelled OrderStatus = "cancelled"
)

type TriggeredOrderStatus string

const (
	TriggeredOpen     TriggeredOrderStatus = "open"
	TriggeredCanceled TriggeredOrderStatus = "canceled"
	TriggeredFinished TriggeredOrderStatus = "finish"
	TriggeredFailed   TriggeredOrderStatus = "failed"
	TriggeredExpired  TriggeredOrderStatus = "expired"
)

// TriggerRule is the price condition that fires a triggered order.
type TriggerRule string

const (
	RuleGreaterEqual TriggerRule = ">="
	RuleLessEqual    TriggerRule = "<="
)

type LimitOrderRequest struct {
	AssetPair   string
	Side        OrderSide
	Amount      float64
	Price       float64
	TimeInForce FillPolicy
}

// OrderResult is what the exchange reports about a limit order, either right
// after placement or on a later status query. Amounts are in base currency,
// FilledTotal in quote.
type OrderResult struct {
	ID           string
	Status       OrderStatus
	Amount       float64 // requested
	FilledAmount float64
	LeftAmount   float64
	FillPrice    float64 // average deal price
	FilledTotal  float64
	Fee          float64 // charged in base currency on buys
}

type TriggeredOrderRequest struct {
	AssetPair    string
	Rule         TriggerRule
	TriggerPrice float64
	Side         OrderSide
	Amount       float64
	LimitPrice   float64
}

type TriggeredOrder struct {
	ID           string
	Status       TriggeredOrderStatus
	FiredOrderID string // set once the trigger fired its limit order
}
