package operation

import (
	"context"
	"pump_bot/internal/models"
)

// Exchange is the slice of the exchange API the lifecycle engine needs.
// *gate_client/service.Client implements it; tests plug in a fake.
type Exchange interface {
	GetAssetPairPrice(ctx context.Context, pair string) (float64, error)
	GetAvailableBalance(ctx context.Context, currency string) (float64, error)
	GetAssetPair(ctx context.Context, pair string) (models.AssetPair, error)
	PlaceLimitOrder(ctx context.Context, req models.LimitOrderRequest) (models.OrderResult, error)
	PlaceTriggeredOrder(ctx context.Context, req models.TriggeredOrderRequest) (models.TriggeredOrder, error)
	GetOrder(ctx context.Context, id, pair string) (models.OrderResult, error)
	GetTriggeredOrder(ctx context.Context, id string) (models.TriggeredOrder, error)
	// CancelTriggeredOrder must treat "order not found" as success: the
	// trigger may have just fired.
	CancelTriggeredOrder(ctx context.Context, id, pair string) error
}
