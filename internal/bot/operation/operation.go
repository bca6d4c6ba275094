package operation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/notify"
	"pump_bot/internal/oplog"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

func (s Status) String() string { return string(s) }

// EndReason records why an operation left the ACTIVE state.
type EndReason string

const (
	EndTakeProfitFulfilled EndReason = "TAKE_PROFIT_FULFILLED"
	EndStopLossFulfilled   EndReason = "STOP_LOSS_FULFILLED"
	EndError               EndReason = "ERROR"
)

type EventKind string

const (
	EventStarted  EventKind = "STARTED"
	EventFinished EventKind = "FINISHED"
)

type Event struct {
	Kind      EventKind
	Operation *Operation
	Reason    EndReason
	Cause     error
}

// Operation is one full trade lifecycle on a single asset pair: an executed
// entry buy, a take-profit trigger and a stop-loss trigger, plus whatever
// emergency sells were needed if things went wrong. It owns two polling
// loops (price tracking and order tracking) that run until finish.
type Operation struct {
	ID        string
	Symbol    string
	AssetPair string
	StartedAt time.Time

	gate     Exchange
	cfg      *config.Config
	pair     models.AssetPair
	log      *oplog.Logger
	notifier notify.Notifier

	events chan Event
	done   chan struct{}

	mu                  sync.Mutex
	status              Status
	endReason           EndReason
	entry               models.EntryOrderDetails
	takeProfit          *models.ExitTriggerDetails
	stopLoss            *models.ExitTriggerDetails
	liquidations        []models.LiquidationOrder
	amountPendingToSell float64

	priceMu     sync.Mutex
	lastPrice   float64
	allTimeLow  float64
	allTimeHigh float64
}

type CreateParams struct {
	ID     string
	Symbol string
	Pair   models.AssetPair
	Budget float64
}

// Create executes the entry order and, on success, returns an ACTIVE
// operation with its tracking loops already running. The entry is retried
// with FOK for the first few attempts, then IOC, until the wall-clock retry
// budget runs out.
func Create(
	ctx context.Context,
	gate Exchange,
	cfg *config.Config,
	params CreateParams,
	log *oplog.Logger,
	notifier notify.Notifier,
) (*Operation, error) {
	startedAt := time.Now()

	var (
		entry   models.EntryOrderDetails
		lastErr error
	)
	for attempt := 0; ; attempt++ {
		policy := models.FillOrKill
		if attempt >= cfg.Buy.FOKAttempts {
			policy = models.ImmediateOrCancel
		}

		entry, lastErr = createEntryOrder(ctx, gate, cfg, params.Symbol, params.Pair, params.Budget, policy, log)
		if lastErr == nil {
			break
		}
		// below-minimum-cost never improves with retries
		if IsCode(lastErr, ErrBelowMinimumCost) {
			return nil, lastErr
		}
		if time.Since(startedAt) > cfg.BuyRetryLimit() {
			log.Error("Buy retry limit exceeded (%v), giving up", cfg.BuyRetryLimit())
			return nil, lastErr
		}
		log.Warn("Retrying BUY order (attempt %d)...", attempt+2)
	}

	op := &Operation{
		ID:                  params.ID,
		Symbol:              params.Symbol,
		AssetPair:           params.Pair.Pair,
		StartedAt:           startedAt,
		gate:                gate,
		cfg:                 cfg,
		pair:                params.Pair,
		log:                 log,
		notifier:            notifier,
		events:              make(chan Event, 4),
		done:                make(chan struct{}),
		status:              StatusActive,
		entry:               entry,
		amountPendingToSell: entry.Amount,
		lastPrice:           entry.FillPrice,
		allTimeLow:          entry.FillPrice,
		allTimeHigh:         entry.FillPrice,
	}

	op.events <- Event{Kind: EventStarted, Operation: op}
	go op.run(ctx)

	return op, nil
}

func (op *Operation) run(ctx context.Context) {
	if err := op.placeExitTriggers(ctx); err != nil {
		op.finish(ctx, EndError, err)
		return
	}

	// price tracking starts only once the position is fully hedged
	go op.trackPrice(ctx)
	op.trackOrders(ctx)
}

func (op *Operation) placeExitTriggers(ctx context.Context) error {
	tp, err := createExitTrigger(ctx, op.gate, op.cfg, op.Symbol, op.pair, models.TakeProfit, op.entry.FillPrice, op.entry.Amount, op.log)
	if err != nil {
		return err
	}
	op.mu.Lock()
	op.takeProfit = &tp
	op.mu.Unlock()

	sl, err := createExitTrigger(ctx, op.gate, op.cfg, op.Symbol, op.pair, models.StopLoss, op.entry.FillPrice, op.entry.Amount, op.log)
	if err != nil {
		return err
	}
	op.mu.Lock()
	op.stopLoss = &sl
	op.mu.Unlock()
	return nil
}

// trackPrice refreshes the last seen price and the ATL/ATH of the operation.
// Transient API errors are swallowed, a stale price is better than no price.
func (op *Operation) trackPrice(ctx context.Context) {
	ticker := time.NewTicker(op.cfg.PriceTrackingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-op.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		price, err := op.gate.GetAssetPairPrice(ctx, op.AssetPair)
		if err != nil || price <= 0 {
			continue
		}
		op.priceMu.Lock()
		op.lastPrice = price
		if price < op.allTimeLow {
			op.allTimeLow = price
		}
		if price > op.allTimeHigh {
			op.allTimeHigh = price
		}
		op.priceMu.Unlock()
	}
}

// trackOrders polls both exit triggers. Whichever side fulfills first wins,
// the check runs take-profit before stop-loss on every tick.
func (op *Operation) trackOrders(ctx context.Context) {
	ticker := time.NewTicker(op.cfg.OrderTrackingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-op.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		op.mu.Lock()
		tp, sl := op.takeProfit, op.stopLoss
		finished := op.status == StatusFinished
		op.mu.Unlock()
		if finished {
			return
		}

		if tp != nil {
			ok, err := checkTriggerFulfilled(ctx, op.gate, models.TakeProfit, *tp, op.AssetPair, op.log)
			if err != nil {
				op.finish(ctx, EndError, err)
				return
			}
			if ok {
				op.markSold(op.entry.Amount)
				op.finish(ctx, EndTakeProfitFulfilled, nil)
				return
			}
		}

		if sl != nil {
			ok, err := checkTriggerFulfilled(ctx, op.gate, models.StopLoss, *sl, op.AssetPair, op.log)
			if err != nil {
				op.finish(ctx, EndError, err)
				return
			}
			if ok {
				op.markSold(op.entry.Amount)
				op.finish(ctx, EndStopLossFulfilled, nil)
				return
			}
		}
	}
}

func (op *Operation) markSold(amount float64) {
	op.mu.Lock()
	op.amountPendingToSell = helper.ToFixed(op.amountPendingToSell-amount, op.pair.AmountPrecision)
	if op.amountPendingToSell < 0 {
		op.amountPendingToSell = 0
	}
	op.mu.Unlock()
}

// finish transitions the operation to FINISHED exactly once. Concurrent
// callers lose the race and get logged; the winner stops the loops, runs the
// error cascade when needed, cancels leftover triggers and emits the final
// event.
func (op *Operation) finish(ctx context.Context, reason EndReason, cause error) {
	op.mu.Lock()
	if op.status == StatusFinished {
		op.mu.Unlock()
		op.log.Warn("Operation already finished (%s), ignoring finish(%s)", op.endReason, reason)
		return
	}
	op.status = StatusFinished
	op.endReason = reason
	op.mu.Unlock()

	close(op.done)

	op.log.LineBreak()
	if cause != nil {
		op.log.Error("Finishing operation: %s (%v)", reason, cause)
	} else {
		op.log.Success("Finishing operation: %s", reason)
	}
	op.priceMu.Lock()
	op.log.Log("Price range: low %v / high %v (entry %v)", op.allTimeLow, op.allTimeHigh, op.entry.FillPrice)
	op.priceMu.Unlock()

	if reason == EndError {
		op.liquidate(ctx)
	}

	op.cancelRemainingTriggers(ctx)

	op.events <- Event{Kind: EventFinished, Operation: op, Reason: reason, Cause: cause}
	close(op.events)
	op.log.Close()
}

// liquidate is the emergency sell cascade: up to MaxAttempts placements, each
// one conceding an extra RetryPercentStep off the price (clamped at
// RetryPercentFloor), stopping early once the leftover position value drops
// under the configured threshold.
func (op *Operation) liquidate(ctx context.Context) {
	var concession float64
	attempt := 0

	for {
		op.mu.Lock()
		pending := op.amountPendingToSell
		op.mu.Unlock()
		if pending <= 0 {
			return
		}

		order, err := createLiquidationOrder(ctx, op.gate, op.cfg, op.Symbol, op.pair, pending, concession, op.log)
		attempt++

		filledSomething := false
		if err == nil {
			op.mu.Lock()
			if order.FilledAmount > 0 {
				filledSomething = true
				op.amountPendingToSell = helper.ToFixed(op.amountPendingToSell-order.FilledAmount, op.pair.AmountPrecision)
				if op.amountPendingToSell < 0 {
					op.amountPendingToSell = 0
				}
			}
			op.liquidations = append(op.liquidations, order)
			pending = op.amountPendingToSell
			op.mu.Unlock()

			op.priceMu.Lock()
			lastPrice := op.lastPrice
			op.priceMu.Unlock()

			if pending*lastPrice < op.cfg.EmergencySell.StopOnPendingValueUSDT {
				op.log.Log("Pending value %v is under %v, stopping emergency sell",
					helper.ToFixed(pending*lastPrice, op.pair.PricePrecision),
					op.cfg.EmergencySell.StopOnPendingValueUSDT)
				return
			}
		}

		if attempt >= op.cfg.EmergencySell.MaxAttempts {
			op.log.Error("Emergency sell gave up after %d attempts, %v %s requires manual handling",
				attempt, pending, op.Symbol)
			op.notifier.Sendf("⚠️ %s: emergency sell exhausted, %v %s left unsold", op.Symbol, pending, op.Symbol)
			return
		}

		if !filledSomething {
			// step is negative, the discount widens until it hits the floor
			concession += op.cfg.EmergencySell.RetryPercentStep
			if concession < op.cfg.EmergencySell.RetryPercentFloor {
				concession = op.cfg.EmergencySell.RetryPercentFloor
			}
		}
		op.log.Warn("Retrying emergency sell (attempt %d, concession %v%%)", attempt+1, concession)
	}
}

func (op *Operation) cancelRemainingTriggers(ctx context.Context) {
	op.mu.Lock()
	tp, sl := op.takeProfit, op.stopLoss
	op.mu.Unlock()

	if tp != nil {
		if err := op.gate.CancelTriggeredOrder(ctx, tp.OrderID, op.AssetPair); err != nil {
			op.log.Warn("Error cancelling TAKE_PROFIT order %s: %v", tp.OrderID, err)
		}
	}
	if sl != nil {
		if err := op.gate.CancelTriggeredOrder(ctx, sl.OrderID, op.AssetPair); err != nil {
			op.log.Warn("Error cancelling STOP_LOSS order %s: %v", sl.OrderID, err)
		}
	}
}

// Kill forces the operation onto the error path, emergency cascade included.
func (op *Operation) Kill(ctx context.Context, cause string) {
	op.finish(ctx, EndError, fmt.Errorf("operation killed: %s", cause))
}

// Events delivers the STARTED event and, eventually, the FINISHED one. The
// channel is closed after FINISHED.
func (op *Operation) Events() <-chan Event { return op.events }

func (op *Operation) Finished() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.status == StatusFinished
}

func (op *Operation) EndedWith() EndReason {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.endReason
}

func (op *Operation) Entry() models.EntryOrderDetails {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.entry
}

func (op *Operation) Liquidations() []models.LiquidationOrder {
	op.mu.Lock()
	defer op.mu.Unlock()
	out := make([]models.LiquidationOrder, len(op.liquidations))
	copy(out, op.liquidations)
	return out
}

func (op *Operation) AmountPendingToSell() float64 {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.amountPendingToSell
}

func (op *Operation) Snapshot() models.OperationSnapshot {
	op.mu.Lock()
	status := op.status
	pending := op.amountPendingToSell
	op.mu.Unlock()

	op.priceMu.Lock()
	lastPrice := op.lastPrice
	op.priceMu.Unlock()

	return models.OperationSnapshot{
		ID:                  op.ID,
		AssetPair:           op.AssetPair,
		Status:              status.String(),
		AmountPendingToSell: pending,
		LastPrice:           lastPrice,
		StartedAt:           op.StartedAt,
	}
}
