package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// GetAvailableBalance returns the free spot balance of the currency.
// A currency absent from the account list means a zero balance.
func (c *Client) GetAvailableBalance(ctx context.Context, currency string) (float64, error) {
	raw, err := c.do(ctx, "GET", "/api/v4/spot/accounts", "currency="+currency, nil)
	if err != nil {
		return 0, err
	}

	var accounts []struct {
		Currency  string `json:"currency"`
		Available string `json:"available"`
	}
	if err = sonic.Unmarshal(raw, &accounts); err != nil {
		return 0, fmt.Errorf("unmarshal accounts: %w", err)
	}

	for _, a := range accounts {
		if a.Currency == currency {
			return parseFloat(a.Available), nil
		}
	}
	return 0, nil
}
