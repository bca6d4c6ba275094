package operation

import (
	"context"
	"fmt"
	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/oplog"
)

// createExitTrigger places one of the two hedging triggered orders off the
// entry fill price: take-profit fires on "price >= threshold" above entry,
// stop-loss on "price <= threshold" below it. The sell amount is the entry
// amount net of the configured exchange fee.
func createExitTrigger(
	ctx context.Context,
	gate Exchange,
	cfg *config.Config,
	symbol string,
	pair models.AssetPair,
	kind models.ExitTriggerKind,
	entryPrice float64,
	amount float64,
	log *oplog.Logger,
) (models.ExitTriggerDetails, error) {
	var (
		rule       models.TriggerRule
		triggerPct float64
		sellPct    float64
	)
	switch kind {
	case models.TakeProfit:
		rule = models.RuleGreaterEqual
		triggerPct = cfg.TakeProfit.TriggerDistancePercent
		sellPct = cfg.TakeProfit.SellDistancePercent
	case models.StopLoss:
		rule = models.RuleLessEqual
		triggerPct = cfg.StopLoss.TriggerDistancePercent
		sellPct = cfg.StopLoss.SellDistancePercent
	}

	sellAmount := helper.ToFixed(helper.ApplyPercentage(amount, -cfg.Gate.FeesPercent), pair.AmountPrecision)
	triggerPrice := helper.ToFixed(helper.ApplyPercentage(entryPrice, triggerPct), pair.PricePrecision)
	sellPrice := helper.ToFixed(helper.ApplyPercentage(entryPrice, sellPct), pair.PricePrecision)

	log.LineBreak()
	log.Log("Creating %s order...", kind)
	log.Log(" - Sell amount : %v %s", sellAmount, symbol)
	log.Log(" - Trigger condition : %s %v (buyPrice %+v%%)", rule, triggerPrice, triggerPct)
	log.Log(" - Sell price : %v (buyPrice %+v%%)", sellPrice, sellPct)

	order, err := gate.PlaceTriggeredOrder(ctx, models.TriggeredOrderRequest{
		AssetPair:    pair.Pair,
		Rule:         rule,
		TriggerPrice: triggerPrice,
		Side:         models.SideSell,
		Amount:       sellAmount,
		LimitPrice:   sellPrice,
	})
	if err != nil {
		log.Error("Error executing %s order %q: %v", kind, pair.Pair, err)
		return models.ExitTriggerDetails{}, NewError(ErrTriggerPlacementFailed,
			fmt.Sprintf("error executing %s order %q", kind, pair.Pair), err.Error())
	}

	log.Success(" - Ready!")
	log.Log(" - %s order ID : %s", kind, order.ID)

	return models.ExitTriggerDetails{
		OrderID:      order.ID,
		TriggerPrice: triggerPrice,
		SellPrice:    sellPrice,
		Amount:       sellAmount,
	}, nil
}
