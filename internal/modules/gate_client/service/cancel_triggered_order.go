package service

import (
	"context"
	"errors"
	"net/http"
)

// CancelTriggeredOrder cancels a price-triggered order. A "not found" from
// the exchange counts as success: the trigger fired (or was cancelled)
// between our last poll and the cancel call.
func (c *Client) CancelTriggeredOrder(ctx context.Context, id, pair string) error {
	_, err := c.do(ctx, "DELETE", "/api/v4/spot/price_orders/"+id, "currency_pair="+pair, nil)
	if err == nil {
		return nil
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
		return nil
	}
	return err
}
