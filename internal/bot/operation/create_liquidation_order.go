package operation

import (
	"context"
	"fmt"
	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/oplog"
)

// createLiquidationOrder force-sells at the current price minus the
// emergency-sell distance minus an extra caller-supplied concession. IOC, no
// FOK guard rail: a partial fill is still progress, so the order is returned
// even when only part of it (or none of it) executed.
func createLiquidationOrder(
	ctx context.Context,
	gate Exchange,
	cfg *config.Config,
	symbol string,
	pair models.AssetPair,
	amount float64,
	concessionPercent float64,
	log *oplog.Logger,
) (models.LiquidationOrder, error) {
	assetPrice, err := gate.GetAssetPairPrice(ctx, pair.Pair)
	if err != nil {
		log.Error("Error retrieving %q price: %v", pair.Pair, err)
		return models.LiquidationOrder{}, NewError(ErrPriceUnavailable,
			fmt.Sprintf("error retrieving %q price", pair.Pair), err.Error())
	}

	distance := cfg.EmergencySell.SellDistancePercent + concessionPercent
	sellPrice := helper.ToFixed(helper.ApplyPercentage(assetPrice, distance), pair.PricePrecision)
	sellAmount := helper.ToFixed(amount, pair.AmountPrecision)

	log.Log("Creating EMERGENCY SELL order...")
	log.Log(" - Current %s price : %v", symbol, assetPrice)
	log.Log(" - Sell amount : %v %s", sellAmount, symbol)
	log.Log(" - Sell price : %v (assetPrice %v%%)", sellPrice, distance)

	order, err := gate.PlaceLimitOrder(ctx, models.LimitOrderRequest{
		AssetPair:   pair.Pair,
		Side:        models.SideSell,
		Amount:      sellAmount,
		Price:       sellPrice,
		TimeInForce: models.ImmediateOrCancel,
	})
	if err != nil {
		log.Error("Error executing EMERGENCY SELL order %q: %v", pair.Pair, err)
		return models.LiquidationOrder{}, NewError(ErrLiquidationNotExecuted,
			fmt.Sprintf("error executing EMERGENCY SELL order %q", pair.Pair), err.Error())
	}

	filled := order.FilledAmount
	if order.Status == models.OrderClosed && filled <= 0 {
		filled = order.Amount
	}

	log.Log(" - Emergency sell order ID : %s (status %s, filled %v, left %v)",
		order.ID, order.Status, filled, order.LeftAmount)

	return models.LiquidationOrder{
		OrderID:      order.ID,
		Status:       order.Status,
		FilledAmount: filled,
		LeftAmount:   order.LeftAmount,
		Fee:          order.Fee,
	}, nil
}
