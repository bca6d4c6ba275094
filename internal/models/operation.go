package models

import "time"

// EntryOrderDetails is computed once, after the entry order settles.
// Amount already nets out the exchange fee and any unfilled remainder: it is
// the authoritative sellable quantity for the rest of the lifecycle.
type EntryOrderDetails struct {
	OrderID            string
	OriginalAssetPrice float64 // reference price when the operation started
	FillPrice          float64
	Amount             float64 // effective, fee-netted
	Cost               float64 // quote currency actually spent
}

type ExitTriggerKind string

const (
	TakeProfit ExitTriggerKind = "TAKE_PROFIT"
	StopLoss   ExitTriggerKind = "STOP_LOSS"
)

// ExitTriggerDetails describes one resting triggered order (take-profit or
// stop-loss). Immutable once placed, replaced only by cancellation.
type ExitTriggerDetails struct {
	OrderID      string
	TriggerPrice float64
	SellPrice    float64
	Amount       float64
}

// LiquidationOrder records one attempt of the emergency-sell cascade.
// Appended, never mutated.
type LiquidationOrder struct {
	OrderID      string
	Status       OrderStatus
	FilledAmount float64
	LeftAmount   float64
	Fee          float64
}

// OperationSnapshot is the read-only view exposed to the CLI and dashboard.
type OperationSnapshot struct {
	ID                  string
	AssetPair           string
	Status              string
	AmountPendingToSell float64
	LastPrice           float64
	StartedAt           time.Time
}
