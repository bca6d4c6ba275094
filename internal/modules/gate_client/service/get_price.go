package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// GetAssetPairPrice returns the last traded price of the pair.
func (c *Client) GetAssetPairPrice(ctx context.Context, pair string) (float64, error) {
	raw, err := c.do(ctx, "GET", "/api/v4/spot/tickers", "currency_pair="+pair, nil)
	if err != nil {
		return 0, err
	}

	var tickers []struct {
		Last string `json:"last"`
	}
	if err = sonic.Unmarshal(raw, &tickers); err != nil {
		return 0, fmt.Errorf("unmarshal tickers: %w", err)
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("no ticker for %q", pair)
	}

	price := parseFloat(tickers[0].Last)
	if price <= 0 {
		return 0, fmt.Errorf("bad ticker price %q for %q", tickers[0].Last, pair)
	}
	return price, nil
}
