package operation

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrPriceUnavailable       ErrorCode = "PRICE_UNAVAILABLE"
	ErrBalanceUnavailable     ErrorCode = "BALANCE_UNAVAILABLE"
	ErrBelowMinimumCost       ErrorCode = "BELOW_MINIMUM_COST"
	ErrEntryNotExecuted       ErrorCode = "ENTRY_NOT_EXECUTED"
	ErrEntryAPIError          ErrorCode = "ENTRY_API_ERROR"
	ErrTriggerPlacementFailed ErrorCode = "TRIGGER_PLACEMENT_FAILED"
	ErrTriggerErrorStatus     ErrorCode = "TRIGGER_ERROR_STATUS"
	ErrLimitErrorStatus       ErrorCode = "LIMIT_ERROR_STATUS"
	ErrLimitOrderLeftAmount   ErrorCode = "LIMIT_ORDER_LEFT_AMOUNT"
	ErrLiquidationNotExecuted ErrorCode = "LIQUIDATION_NOT_EXECUTED"
)

// Error is an operation-scoped failure: a machine-readable code plus the raw
// exchange diagnostic, when there is one.
type Error struct {
	Code    ErrorCode
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func NewError(code ErrorCode, message, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// IsCode reports whether err carries the given operation error code.
func IsCode(err error, code ErrorCode) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Code == code
}
