package operation

import (
	"context"
	"sync"

	"pump_bot/internal/models"
)

// fakeExchange is a programmable Exchange for lifecycle tests. Behaviors not
// overridden fall back to a clean happy path.
type fakeExchange struct {
	mu sync.Mutex

	price    float64
	priceErr error

	placeLimitFn     func(req models.LimitOrderRequest) (models.OrderResult, error)
	placeTriggeredFn func(req models.TriggeredOrderRequest) (models.TriggeredOrder, error)
	getOrderFn       func(id, pair string) (models.OrderResult, error)
	getTriggeredFn   func(id string) (models.TriggeredOrder, error)
	cancelErr        error

	limitRequests     []models.LimitOrderRequest
	triggeredRequests []models.TriggeredOrderRequest
	cancelled         []string
	priceCalls        int
}

func newFakeExchange(price float64) *fakeExchange {
	return &fakeExchange{price: price}
}

func (f *fakeExchange) GetAssetPairPrice(context.Context, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	return f.price, nil
}

func (f *fakeExchange) priceCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceCalls
}

func (f *fakeExchange) GetAvailableBalance(context.Context, string) (float64, error) {
	return 1000, nil
}

func (f *fakeExchange) GetAssetPair(_ context.Context, pair string) (models.AssetPair, error) {
	return models.AssetPair{Pair: pair, AmountPrecision: 2, PricePrecision: 6, Tradable: true}, nil
}

func (f *fakeExchange) PlaceLimitOrder(_ context.Context, req models.LimitOrderRequest) (models.OrderResult, error) {
	f.mu.Lock()
	f.limitRequests = append(f.limitRequests, req)
	fn := f.placeLimitFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return models.OrderResult{
		ID:           "order-1",
		Status:       models.OrderClosed,
		Amount:       req.Amount,
		FilledAmount: req.Amount,
		FillPrice:    req.Price,
		FilledTotal:  req.Amount * req.Price,
	}, nil
}

func (f *fakeExchange) PlaceTriggeredOrder(_ context.Context, req models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
	f.mu.Lock()
	f.triggeredRequests = append(f.triggeredRequests, req)
	n := len(f.triggeredRequests)
	fn := f.placeTriggeredFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	id := "trigger-1"
	if n > 1 {
		id = "trigger-2"
	}
	return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
}

func (f *fakeExchange) GetOrder(_ context.Context, id, pair string) (models.OrderResult, error) {
	f.mu.Lock()
	fn := f.getOrderFn
	f.mu.Unlock()
	if fn != nil {
		return fn(id, pair)
	}
	return models.OrderResult{ID: id, Status: models.OrderClosed}, nil
}

func (f *fakeExchange) GetTriggeredOrder(_ context.Context, id string) (models.TriggeredOrder, error) {
	f.mu.Lock()
	fn := f.getTriggeredFn
	f.mu.Unlock()
	if fn != nil {
		return fn(id)
	}
	return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
}

func (f *fakeExchange) CancelTriggeredOrder(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr
}

func (f *fakeExchange) limitCalls() []models.LimitOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LimitOrderRequest, len(f.limitRequests))
	copy(out, f.limitRequests)
	return out
}

func (f *fakeExchange) triggeredCalls() []models.TriggeredOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TriggeredOrderRequest, len(f.triggeredRequests))
	copy(out, f.triggeredRequests)
	return out
}

func (f *fakeExchange) cancelledIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cancelled))
	copy(out, f.cancelled)
	return out
}
