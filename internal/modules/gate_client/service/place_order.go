package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"pump_bot/internal/models"
)

type orderResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	Left         string `json:"left"`
	FilledTotal  string `json:"filled_total"`
	AvgDealPrice string `json:"avg_deal_price"`
	Fee          string `json:"fee"`
}

func (r orderResponse) toModel() models.OrderResult {
	amount := parseFloat(r.Amount)
	left := parseFloat(r.Left)
	return models.OrderResult{
		ID:           r.ID,
		Status:       models.OrderStatus(r.Status),
		Amount:       amount,
		FilledAmount: amount - left,
		LeftAmount:   left,
		FillPrice:    parseFloat(r.AvgDealPrice),
		FilledTotal:  parseFloat(r.FilledTotal),
		Fee:          parseFloat(r.Fee),
	}
}

// PlaceLimitOrder creates a spot limit order and returns its final state.
// With fok/ioc time-in-force the exchange settles the order synchronously,
// so the returned status is already terminal.
func (c *Client) PlaceLimitOrder(ctx context.Context, req models.LimitOrderRequest) (models.OrderResult, error) {
	body, err := sonic.Marshal(map[string]string{
		"currency_pair": req.AssetPair,
		"side":          string(req.Side),
		"amount":        strconv.FormatFloat(req.Amount, 'f', -1, 64),
		"price":         strconv.FormatFloat(req.Price, 'f', -1, 64),
		"time_in_force": string(req.TimeInForce),
	})
	if err != nil {
		return models.OrderResult{}, fmt.Errorf("marshal order: %w", err)
	}

	raw, err := c.do(ctx, "POST", "/api/v4/spot/orders", "", body)
	if err != nil {
		return models.OrderResult{}, err
	}

	var resp orderResponse
	if err = sonic.Unmarshal(raw, &resp); err != nil {
		return models.OrderResult{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return resp.toModel(), nil
}
