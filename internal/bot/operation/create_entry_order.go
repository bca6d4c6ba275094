package operation

import (
	"context"
	"fmt"
	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/oplog"
)

// createEntryOrder places the buy that opens the position. Target price sits
// buyDistancePercent above the current price, amount is whatever the budget
// pays for at that price, floored to the instrument precision.
//
// A cancelled order with a nonzero fill is a partial success: the entry is
// the only order type where partial fills count. Everything else fails.
func createEntryOrder(
	ctx context.Context,
	gate Exchange,
	cfg *config.Config,
	symbol string,
	pair models.AssetPair,
	budget float64,
	policy models.FillPolicy,
	log *oplog.Logger,
) (models.EntryOrderDetails, error) {
	assetPrice, err := gate.GetAssetPairPrice(ctx, pair.Pair)
	if err != nil {
		log.Error("Error retrieving %q price: %v", pair.Pair, err)
		return models.EntryOrderDetails{}, NewError(ErrPriceUnavailable,
			fmt.Sprintf("error retrieving %q price", pair.Pair), err.Error())
	}

	buyPrice := helper.ToFixed(helper.ApplyPercentage(assetPrice, cfg.Buy.BuyDistancePercent), pair.PricePrecision)
	buyAmount := helper.ToFixed(budget/buyPrice, pair.AmountPrecision)
	cost := helper.ToFixed(buyAmount*buyPrice, pair.PricePrecision)

	log.LineBreak()
	log.Log("Creating BUY order (%s)...", policy)
	log.Log(" - Current %s price : %v %s", symbol, assetPrice, cfg.Gate.QuoteCurrency)
	log.Log(" - Buy amount : %v %s", buyAmount, symbol)
	log.Log(" - Buy price : %v (currentPrice + %v%%)", buyPrice, cfg.Buy.BuyDistancePercent)
	log.Log(" - Operation cost : %v (budget: %v)", cost, budget)

	if cost < cfg.Operation.MinimumCostUSDT {
		log.Error("Operation cost (%v) is lower than allowed minimum (%v)", cost, cfg.Operation.MinimumCostUSDT)
		return models.EntryOrderDetails{}, NewError(ErrBelowMinimumCost,
			fmt.Sprintf("operation cost %v is below the %v minimum", cost, cfg.Operation.MinimumCostUSDT), "")
	}

	order, err := gate.PlaceLimitOrder(ctx, models.LimitOrderRequest{
		AssetPair:   pair.Pair,
		Side:        models.SideBuy,
		Amount:      buyAmount,
		Price:       buyPrice,
		TimeInForce: policy,
	})
	if err != nil {
		log.Error("Error executing BUY order %q: %v", pair.Pair, err)
		return models.EntryOrderDetails{}, NewError(ErrEntryAPIError,
			fmt.Sprintf("error executing BUY order %q", pair.Pair), err.Error())
	}

	var filled float64
	switch {
	case order.Status == models.OrderClosed:
		filled = order.Amount
	case order.Status == models.OrderCancelled && order.FilledAmount > 0:
		// partially filled before the IOC cancel kicked in
		filled = order.FilledAmount
		log.Warn(" - BUY order partially filled: %v of %v %s", filled, buyAmount, symbol)
	default:
		log.Error("BUY order not executed %q (status %s)", pair.Pair, order.Status)
		return models.EntryOrderDetails{}, NewError(ErrEntryNotExecuted,
			fmt.Sprintf("BUY order not executed %q", pair.Pair), fmt.Sprintf("status=%s", order.Status))
	}

	effectiveAmount := helper.ToFixed(filled-order.Fee, pair.AmountPrecision)
	fillPrice := order.FillPrice
	if fillPrice <= 0 {
		fillPrice = buyPrice
	}
	effectiveCost := order.FilledTotal
	if effectiveCost <= 0 {
		effectiveCost = helper.ToFixed(filled*fillPrice, pair.PricePrecision)
	}

	log.Success(" - Ready!")
	log.Log(" - Buy order ID : %s", order.ID)
	log.Log(" - Effective amount : %v %s (filled - fee)", effectiveAmount, symbol)
	log.Log(" - Fill price : %v", fillPrice)
	log.Log(" - Fill total : %v", effectiveCost)

	return models.EntryOrderDetails{
		OrderID:            order.ID,
		OriginalAssetPrice: assetPrice,
		FillPrice:          fillPrice,
		Amount:             effectiveAmount,
		Cost:               effectiveCost,
	}, nil
}
