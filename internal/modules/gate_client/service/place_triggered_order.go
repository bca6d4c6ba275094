package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"pump_bot/internal/models"
)

// triggered orders auto-expire on the exchange side after this many seconds
const triggeredOrderExpirationSeconds = 86400

// PlaceTriggeredOrder creates a spot price-triggered order: once the market
// price satisfies rule vs trigger price, the exchange fires a limit order.
func (c *Client) PlaceTriggeredOrder(ctx context.Context, req models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
	body, err := sonic.Marshal(map[string]any{
		"market": req.AssetPair,
		"trigger": map[string]any{
			"price":      strconv.FormatFloat(req.TriggerPrice, 'f', -1, 64),
			"rule":       string(req.Rule),
			"expiration": triggeredOrderExpirationSeconds,
		},
		"put": map[string]string{
			"type":          "limit",
			"side":          string(req.Side),
			"price":         strconv.FormatFloat(req.LimitPrice, 'f', -1, 64),
			"amount":        strconv.FormatFloat(req.Amount, 'f', -1, 64),
			"account":       "normal",
			"time_in_force": "gtc",
		},
	})
	if err != nil {
		return models.TriggeredOrder{}, fmt.Errorf("marshal triggered order: %w", err)
	}

	raw, err := c.do(ctx, "POST", "/api/v4/spot/price_orders", "", body)
	if err != nil {
		return models.TriggeredOrder{}, err
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err = sonic.Unmarshal(raw, &resp); err != nil {
		return models.TriggeredOrder{}, fmt.Errorf("unmarshal triggered order: %w", err)
	}

	return models.TriggeredOrder{
		ID:     strconv.FormatInt(resp.ID, 10),
		Status: models.TriggeredOpen,
	}, nil
}
