package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"pump_bot/internal/models"
)

// GetOrder returns the current state of a spot order.
func (c *Client) GetOrder(ctx context.Context, id, pair string) (models.OrderResult, error) {
	raw, err := c.do(ctx, "GET", "/api/v4/spot/orders/"+id, "currency_pair="+pair, nil)
	if err != nil {
		return models.OrderResult{}, err
	}

	var resp orderResponse
	if err = sonic.Unmarshal(raw, &resp); err != nil {
		return models.OrderResult{}, fmt.Errorf("unmarshal order %s: %w", id, err)
	}
	return resp.toModel(), nil
}
