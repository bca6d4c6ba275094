package models

type BudgetUnit string

const (
	BudgetPercentage BudgetUnit = "PERCENTAGE"
	BudgetAbsolute   BudgetUnit = "ABSOLUTE"
)

// Budget is resolved against the live available balance once, at operation
// creation time.
type Budget struct {
	Amount float64
	Unit   BudgetUnit
}
