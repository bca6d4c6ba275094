package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"pump_bot/internal/models"
)

// GetAssetPair returns the pair metadata: precisions and tradability.
func (c *Client) GetAssetPair(ctx context.Context, pair string) (models.AssetPair, error) {
	raw, err := c.do(ctx, "GET", "/api/v4/spot/currency_pairs/"+pair, "", nil)
	if err != nil {
		return models.AssetPair{}, err
	}

	var resp struct {
		ID              string `json:"id"`
		AmountPrecision int    `json:"amount_precision"`
		Precision       int    `json:"precision"`
		TradeStatus     string `json:"trade_status"`
	}
	if err = sonic.Unmarshal(raw, &resp); err != nil {
		return models.AssetPair{}, fmt.Errorf("unmarshal currency pair: %w", err)
	}

	return models.AssetPair{
		Pair:            resp.ID,
		AmountPrecision: resp.AmountPrecision,
		PricePrecision:  resp.Precision,
		Tradable:        resp.TradeStatus == "tradable",
	}, nil
}
