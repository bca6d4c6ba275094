package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"pump_bot/internal/models"
)

// GetTriggeredOrder returns the state of a price-triggered order, including
// the ID of the limit order it fired, once it has fired.
func (c *Client) GetTriggeredOrder(ctx context.Context, id string) (models.TriggeredOrder, error) {
	raw, err := c.do(ctx, "GET", "/api/v4/spot/price_orders/"+id, "", nil)
	if err != nil {
		return models.TriggeredOrder{}, err
	}

	var resp struct {
		ID           int64  `json:"id"`
		Status       string `json:"status"`
		FiredOrderID int64  `json:"fired_order_id"`
	}
	if err = sonic.Unmarshal(raw, &resp); err != nil {
		return models.TriggeredOrder{}, fmt.Errorf("unmarshal triggered order %s: %w", id, err)
	}

	order := models.TriggeredOrder{
		ID:     strconv.FormatInt(resp.ID, 10),
		Status: models.TriggeredOrderStatus(resp.Status),
	}
	if resp.FiredOrderID != 0 {
		order.FiredOrderID = strconv.FormatInt(resp.FiredOrderID, 10)
	}
	return order, nil
}
