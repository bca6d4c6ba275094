package operation

import (
	"context"
	"fmt"
	"pump_bot/internal/models"
	"pump_bot/internal/oplog"
)

// checkTriggerFulfilled polls a triggered order and, once the trigger has
// fired, inspects the limit order it spawned. Returns true only when the
// fired order is fully closed. Any failure to read order state is fatal for
// the operation: a position we cannot track is a position we must dump.
func checkTriggerFulfilled(
	ctx context.Context,
	gate Exchange,
	kind models.ExitTriggerKind,
	trigger models.ExitTriggerDetails,
	pair string,
	log *oplog.Logger,
) (bool, error) {
	order, err := gate.GetTriggeredOrder(ctx, trigger.OrderID)
	if err != nil {
		log.Error("Error checking %s order %s: %v", kind, trigger.OrderID, err)
		return false, fmt.Errorf("checking %s order %s: %w", kind, trigger.OrderID, err)
	}

	switch order.Status {
	case models.TriggeredCanceled, models.TriggeredFailed, models.TriggeredExpired:
		log.Error("%s order %s has error status %q", kind, trigger.OrderID, order.Status)
		return false, NewError(ErrTriggerErrorStatus,
			fmt.Sprintf("%s order %s has error status", kind, trigger.OrderID),
			fmt.Sprintf("status=%s", order.Status))
	case models.TriggeredFinished:
		// trigger fired, check the resulting limit order
	default:
		return false, nil
	}

	fired, err := gate.GetOrder(ctx, order.FiredOrderID, pair)
	if err != nil {
		log.Error("Error checking fired order %s of %s %s: %v", order.FiredOrderID, kind, trigger.OrderID, err)
		return false, fmt.Errorf("checking fired order %s of %s %s: %w", order.FiredOrderID, kind, trigger.OrderID, err)
	}

	switch {
	case fired.LeftAmount > 0:
		log.Error("Fired order %s of %s has left amount %v", fired.ID, kind, fired.LeftAmount)
		return false, NewError(ErrLimitOrderLeftAmount,
			fmt.Sprintf("fired order %s of %s has unsold amount", fired.ID, kind),
			fmt.Sprintf("left=%v", fired.LeftAmount))
	case fired.Status == models.OrderCancelled:
		log.Error("Fired order %s of %s was cancelled", fired.ID, kind)
		return false, NewError(ErrLimitErrorStatus,
			fmt.Sprintf("fired order %s of %s has error status", fired.ID, kind),
			fmt.Sprintf("status=%s", fired.Status))
	case fired.Status == models.OrderClosed:
		return true, nil
	}
	return false, nil
}
