package operation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/notify"
	"pump_bot/internal/oplog"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gate.QuoteCurrency = "USDT"
	cfg.Gate.FeesPercent = 0.2
	cfg.Operation.MinimumCostUSDT = 1
	cfg.Operation.PriceTrackingIntervalMillis = 5
	cfg.Operation.OrderTrackingIntervalMillis = 5
	cfg.Buy.BuyDistancePercent = 1
	cfg.Buy.FOKAttempts = 2
	cfg.Buy.RetryLimitMillis = 500
	cfg.TakeProfit.TriggerDistancePercent = 7
	cfg.TakeProfit.SellDistancePercent = 6
	cfg.StopLoss.TriggerDistancePercent = -2
	cfg.StopLoss.SellDistancePercent = -3
	cfg.EmergencySell.SellDistancePercent = -2
	cfg.EmergencySell.RetryPercentStep = -1
	cfg.EmergencySell.RetryPercentFloor = -10
	cfg.EmergencySell.MaxAttempts = 3
	cfg.EmergencySell.StopOnPendingValueUSDT = 1
	return cfg
}

func testPair() models.AssetPair {
	return models.AssetPair{Pair: "DOGE_USDT", AmountPrecision: 2, PricePrecision: 6, Tradable: true}
}

func createTestOperation(t *testing.T, gate *fakeExchange, cfg *config.Config) *Operation {
	t.Helper()
	op, err := Create(context.Background(), gate, cfg, CreateParams{
		ID:     "1",
		Symbol: "DOGE",
		Pair:   testPair(),
		Budget: 100,
	}, oplog.NewDiscard(), notify.NewStdout())
	require.NoError(t, err)
	return op
}

func waitFinished(t *testing.T, op *Operation) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-op.Events():
			require.True(t, ok, "event stream closed before FINISHED")
			if ev.Kind == EventFinished {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for FINISHED event")
		}
	}
}

func TestOperationTakeProfitHappyPath(t *testing.T) {
	gate := newFakeExchange(0.1)
	fired := make(chan struct{})
	gate.getTriggeredFn = func(id string) (models.TriggeredOrder, error) {
		select {
		case <-fired:
		default:
			return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
		}
		if id == "trigger-1" {
			return models.TriggeredOrder{ID: id, Status: models.TriggeredFinished, FiredOrderID: "fired-1"}, nil
		}
		return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
	}

	op := createTestOperation(t, gate, testConfig())
	require.Equal(t, "DOGE_USDT", op.AssetPair)

	ev := <-op.Events()
	assert.Equal(t, EventStarted, ev.Kind)

	close(fired)
	done := waitFinished(t, op)
	assert.Equal(t, EndTakeProfitFulfilled, done.Reason)
	assert.NoError(t, done.Cause)
	assert.True(t, op.Finished())
	assert.Zero(t, op.AmountPendingToSell())
	assert.Empty(t, op.Liquidations())

	// both exit triggers went out, sell amounts netted by the exchange fee
	triggers := gate.triggeredCalls()
	require.Len(t, triggers, 2)
	entry := op.Entry()
	wantSell := helper.ToFixed(helper.ApplyPercentage(entry.Amount, -0.2), 2)
	assert.InDelta(t, wantSell, triggers[0].Amount, 1e-9)
	assert.Equal(t, models.RuleGreaterEqual, triggers[0].Rule)
	assert.Equal(t, models.RuleLessEqual, triggers[1].Rule)

	// the losing stop-loss trigger is cancelled on the way out
	assert.Contains(t, gate.cancelledIDs(), "trigger-2")
}

func TestOperationStopLossFulfilled(t *testing.T) {
	gate := newFakeExchange(0.1)
	gate.getTriggeredFn = func(id string) (models.TriggeredOrder, error) {
		if id == "trigger-2" {
			return models.TriggeredOrder{ID: id, Status: models.TriggeredFinished, FiredOrderID: "fired-2"}, nil
		}
		return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
	}

	op := createTestOperation(t, gate, testConfig())
	ev := waitFinished(t, op)
	assert.Equal(t, EndStopLossFulfilled, ev.Reason)
	assert.Zero(t, op.AmountPendingToSell())
}

func TestOperationEntryPartialFill(t *testing.T) {
	gate := newFakeExchange(0.1)
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		// 60% filled before the cancel
		return models.OrderResult{
			ID:           "order-1",
			Status:       models.OrderCancelled,
			Amount:       req.Amount,
			FilledAmount: req.Amount * 0.6,
			LeftAmount:   req.Amount * 0.4,
			FillPrice:    req.Price,
			Fee:          1,
		}, nil
	}

	op := createTestOperation(t, gate, testConfig())
	defer op.Kill(context.Background(), "test teardown")

	entry := op.Entry()
	// budget 100 at price 0.101 -> 990.09 requested, 594.05 filled, minus fee 1
	assert.InDelta(t, 593.05, entry.Amount, 0.02)
	assert.Equal(t, entry.Amount, op.AmountPendingToSell())
}

func TestOperationEntryRetrySwitchesToIOC(t *testing.T) {
	cfg := testConfig()
	cfg.Buy.FOKAttempts = 2

	gate := newFakeExchange(0.1)
	attempts := 0
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		attempts++
		if attempts <= 2 {
			// FOK killed with no fill
			return models.OrderResult{ID: "order-x", Status: models.OrderCancelled, Amount: req.Amount}, nil
		}
		return models.OrderResult{
			ID: "order-1", Status: models.OrderClosed,
			Amount: req.Amount, FilledAmount: req.Amount, FillPrice: req.Price,
		}, nil
	}

	op := createTestOperation(t, gate, cfg)
	defer op.Kill(context.Background(), "test teardown")

	calls := gate.limitCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, models.FillOrKill, calls[0].TimeInForce)
	assert.Equal(t, models.FillOrKill, calls[1].TimeInForce)
	assert.Equal(t, models.ImmediateOrCancel, calls[2].TimeInForce)
}

func TestOperationEntryRetryBudgetExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.Buy.RetryLimitMillis = 30

	gate := newFakeExchange(0.1)
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		time.Sleep(10 * time.Millisecond)
		return models.OrderResult{}, errors.New("exchange is down")
	}

	_, err := Create(context.Background(), gate, cfg, CreateParams{
		ID: "1", Symbol: "DOGE", Pair: testPair(), Budget: 100,
	}, oplog.NewDiscard(), notify.NewStdout())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrEntryAPIError))
}

func TestOperationBelowMinimumCostFailsFast(t *testing.T) {
	cfg := testConfig()
	cfg.Operation.MinimumCostUSDT = 1000

	gate := newFakeExchange(0.1)
	_, err := Create(context.Background(), gate, cfg, CreateParams{
		ID: "1", Symbol: "DOGE", Pair: testPair(), Budget: 100,
	}, oplog.NewDiscard(), notify.NewStdout())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrBelowMinimumCost))
	// no retry loop for a structurally impossible order
	assert.Len(t, gate.limitCalls(), 1)
}

func TestOperationTriggerFailureRunsCascade(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencySell.MaxAttempts = 3
	cfg.EmergencySell.StopOnPendingValueUSDT = 0.5

	gate := newFakeExchange(0.1)
	gate.placeTriggeredFn = func(models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
		return models.TriggeredOrder{}, errors.New("trigger rejected")
	}
	var sells []models.LimitOrderRequest
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		if req.Side == models.SideBuy {
			return models.OrderResult{
				ID: "order-1", Status: models.OrderClosed,
				Amount: req.Amount, FilledAmount: req.Amount, FillPrice: req.Price,
			}, nil
		}
		sells = append(sells, req)
		// nothing ever fills
		return models.OrderResult{ID: "sell-x", Status: models.OrderCancelled, Amount: req.Amount, LeftAmount: req.Amount}, nil
	}

	op := createTestOperation(t, gate, cfg)
	ev := waitFinished(t, op)

	assert.Equal(t, EndError, ev.Reason)
	assert.True(t, IsCode(ev.Cause, ErrTriggerPlacementFailed))

	// exactly MaxAttempts placements, discount widening by the step each time
	require.Len(t, sells, 3)
	assert.Greater(t, sells[0].Price, sells[1].Price)
	assert.Greater(t, sells[1].Price, sells[2].Price)

	// the position is still unsold
	assert.Equal(t, op.Entry().Amount, op.AmountPendingToSell())
	assert.Len(t, op.Liquidations(), 3)
}

func TestOperationCascadeStopsOnPendingValueThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencySell.MaxAttempts = 5
	cfg.EmergencySell.StopOnPendingValueUSDT = 5

	gate := newFakeExchange(0.1)
	gate.placeTriggeredFn = func(models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
		return models.TriggeredOrder{}, errors.New("trigger rejected")
	}
	sellCount := 0
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		if req.Side == models.SideBuy {
			return models.OrderResult{
				ID: "order-1", Status: models.OrderClosed,
				Amount: req.Amount, FilledAmount: req.Amount, FillPrice: req.Price,
			}, nil
		}
		sellCount++
		// first sell moves almost everything
		return models.OrderResult{
			ID: "sell-1", Status: models.OrderCancelled,
			Amount: req.Amount, FilledAmount: req.Amount - 10, LeftAmount: 10,
		}, nil
	}

	op := createTestOperation(t, gate, cfg)
	ev := waitFinished(t, op)

	assert.Equal(t, EndError, ev.Reason)
	// 10 DOGE left at ~0.1 USDT is under the 5 USDT threshold, no second attempt
	assert.Equal(t, 1, sellCount)
	assert.InDelta(t, 10, op.AmountPendingToSell(), 0.01)
	assert.Len(t, op.Liquidations(), 1)
}

func TestOperationFinishIsIdempotent(t *testing.T) {
	gate := newFakeExchange(0.1)
	op := createTestOperation(t, gate, testConfig())

	op.Kill(context.Background(), "first")
	op.Kill(context.Background(), "second")

	finished := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-op.Events():
			if !ok {
				require.Equal(t, 1, finished, "expected exactly one FINISHED event")
				return
			}
			if ev.Kind == EventFinished {
				finished++
			}
		case <-timeout:
			t.Fatal("event stream never closed")
		}
	}
}

func TestOperationStatusPollFailureIsFatal(t *testing.T) {
	gate := newFakeExchange(0.1)
	gate.getTriggeredFn = func(string) (models.TriggeredOrder, error) {
		return models.TriggeredOrder{}, errors.New("status endpoint down")
	}

	op := createTestOperation(t, gate, testConfig())
	ev := waitFinished(t, op)

	// a position we cannot track gets dumped, not babysat
	assert.Equal(t, EndError, ev.Reason)
	assert.ErrorContains(t, ev.Cause, "status endpoint down")
	assert.NotEmpty(t, op.Liquidations())
}

func TestOperationPriceTrackingWaitsForTriggers(t *testing.T) {
	gate := newFakeExchange(0.1)
	release := make(chan struct{})
	gate.placeTriggeredFn = func(req models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
		<-release
		return models.TriggeredOrder{ID: "trigger-1", Status: models.TriggeredOpen}, nil
	}

	op := createTestOperation(t, gate, testConfig())
	defer func() {
		op.Kill(context.Background(), "test teardown")
	}()

	// one price call belongs to the entry order; none may follow while the
	// position is still unhedged
	entryCalls := gate.priceCallCount()
	require.Equal(t, 1, entryCalls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, entryCalls, gate.priceCallCount())

	close(release)
	assert.Eventually(t, func() bool {
		return gate.priceCallCount() > entryCalls
	}, 2*time.Second, 5*time.Millisecond)
}

func TestOperationCascadeKeepsConcessionOnPartialFill(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencySell.MaxAttempts = 3
	cfg.EmergencySell.StopOnPendingValueUSDT = 0.5

	gate := newFakeExchange(0.1)
	gate.placeTriggeredFn = func(models.TriggeredOrderRequest) (models.TriggeredOrder, error) {
		return models.TriggeredOrder{}, errors.New("trigger rejected")
	}
	var (
		sellMu sync.Mutex
		sells  []models.LimitOrderRequest
	)
	gate.placeLimitFn = func(req models.LimitOrderRequest) (models.OrderResult, error) {
		if req.Side == models.SideBuy {
			return models.OrderResult{
				ID: "order-1", Status: models.OrderClosed,
				Amount: req.Amount, FilledAmount: req.Amount, FillPrice: req.Price,
			}, nil
		}
		sellMu.Lock()
		sells = append(sells, req)
		sellMu.Unlock()
		// every attempt moves a sliver, never enough to hit the threshold
		return models.OrderResult{
			ID: "sell-x", Status: models.OrderCancelled,
			Amount: req.Amount, FilledAmount: 1, LeftAmount: req.Amount - 1,
		}, nil
	}

	op := createTestOperation(t, gate, cfg)
	ev := waitFinished(t, op)
	assert.Equal(t, EndError, ev.Reason)

	// partial fills keep the concession where it is, the price only tracks
	// the market, it never discounts further
	sellMu.Lock()
	defer sellMu.Unlock()
	require.Len(t, sells, 3)
	assert.Equal(t, sells[0].Price, sells[1].Price)
	assert.Equal(t, sells[1].Price, sells[2].Price)
}

func TestOperationKillCarriesPlainCause(t *testing.T) {
	gate := newFakeExchange(0.1)
	op := createTestOperation(t, gate, testConfig())

	op.Kill(context.Background(), "killed via console")
	ev := waitFinished(t, op)

	assert.Equal(t, EndError, ev.Reason)
	assert.ErrorContains(t, ev.Cause, "killed via console")
	// no liquidation happened yet when the kill was decided
	assert.False(t, IsCode(ev.Cause, ErrLiquidationNotExecuted))
}

func TestOperationTriggerErrorStatusIsFatal(t *testing.T) {
	gate := newFakeExchange(0.1)
	gate.getTriggeredFn = func(id string) (models.TriggeredOrder, error) {
		if id == "trigger-1" {
			return models.TriggeredOrder{ID: id, Status: models.TriggeredExpired}, nil
		}
		return models.TriggeredOrder{ID: id, Status: models.TriggeredOpen}, nil
	}

	op := createTestOperation(t, gate, testConfig())
	ev := waitFinished(t, op)
	assert.Equal(t, EndError, ev.Reason)
	assert.True(t, IsCode(ev.Cause, ErrTriggerErrorStatus))
}
