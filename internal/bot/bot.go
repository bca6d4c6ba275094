package bot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"pump_bot/internal/bot/operation"
	"pump_bot/internal/helper"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/notify"
	"pump_bot/internal/oplog"
	"pump_bot/pkg/logger"
)

// Archive persists finished operations. A nil Archive disables persistence.
type Archive interface {
	Init(ctx context.Context) error
	SaveFinished(ctx context.Context, rec FinishedOperation) error
}

// FinishedOperation is the archive row written when an operation ends.
type FinishedOperation struct {
	ID                  string
	AssetPair           string
	EndReason           string
	Cause               string
	EntryOrderID        string
	EntryFillPrice      float64
	EntryAmount         float64
	EntryCost           float64
	AmountPendingToSell float64
	Liquidations        []models.LiquidationOrder
	StartedAt           time.Time
	FinishedAt          time.Time
}

// Bot admits pump signals and runs at most MaxSimultaneous operations, one
// per asset pair. Operation creation is serialized through a single slot:
// signals arriving while an entry buy is in flight are dropped, not queued.
type Bot struct {
	cfg      *config.Config
	gate     operation.Exchange
	notifier notify.Notifier
	archive  Archive

	creationSlot chan struct{}

	mu              sync.Mutex
	operations      map[string]*operation.Operation
	lastOperationID int

	logsDir string
}

func New(cfg *config.Config, gate operation.Exchange, notifier notify.Notifier, archive Archive) *Bot {
	b := &Bot{
		cfg:          cfg,
		gate:         gate,
		notifier:     notifier,
		archive:      archive,
		creationSlot: make(chan struct{}, 1),
		operations:   make(map[string]*operation.Operation),
		logsDir:      cfg.LogsPath,
	}
	b.creationSlot <- struct{}{}
	return b
}

// Start prepares the operation logs directory and the archive.
func (b *Bot) Start(ctx context.Context) error {
	if b.cfg.CleanLogsOnStart {
		if err := os.RemoveAll(b.logsDir); err != nil {
			return errors.Wrap(err, "clean logs dir")
		}
	}
	if err := os.MkdirAll(b.logsDir, 0o755); err != nil {
		return errors.Wrap(err, "create logs dir")
	}
	if b.archive != nil {
		if err := b.archive.Init(ctx); err != nil {
			return errors.Wrap(err, "init archive")
		}
	}
	return nil
}

// HandleSignal filters an incoming signal and, if it survives, turns it into
// an operation funded by the configured balance percentage.
func (b *Bot) HandleSignal(ctx context.Context, sig models.Signal) {
	lag := time.Since(sig.ObservedAt)
	logger.Info("signal %s from %q (kind %s, lag %v)",
		sig.AssetSymbol, sig.SourceName, sig.Kind, lag.Truncate(time.Millisecond))

	if sig.Kind == models.SignalTest {
		logger.Info("test signal, skipping %s", sig.AssetSymbol)
		return
	}
	if lag > b.cfg.MaxSignalAge() {
		logger.Info("stale signal %s (lag %v > %v), skipping",
			sig.AssetSymbol, lag.Truncate(time.Millisecond), b.cfg.MaxSignalAge())
		return
	}

	budget := models.Budget{
		Amount: b.cfg.Operation.UseBalancePercent,
		Unit:   models.BudgetPercentage,
	}
	if err := b.CreateOperation(ctx, sig.AssetSymbol, budget); err != nil {
		logger.Error("signal %s dropped: %v", sig.AssetSymbol, err)
	}
}

// CreateOperation runs the admission pipeline and starts the operation. At
// most one creation runs at a time; concurrent calls fail fast instead of
// queueing behind an in-flight entry buy.
func (b *Bot) CreateOperation(ctx context.Context, symbol string, budget models.Budget) error {
	select {
	case <-b.creationSlot:
	default:
		return fmt.Errorf("another operation is being created, %s dropped", symbol)
	}
	defer func() { b.creationSlot <- struct{}{} }()

	span, ctx := opentracing.StartSpanFromContext(ctx, "bot.create_operation")
	span.SetTag("symbol", symbol)
	defer span.Finish()

	pairName := helper.PairOf(symbol, b.cfg.Gate.QuoteCurrency)

	b.mu.Lock()
	_, exists := b.operations[pairName]
	active := len(b.operations)
	b.mu.Unlock()
	if exists {
		return fmt.Errorf("operation on %s already active", pairName)
	}
	if active >= b.cfg.Operation.MaxSimultaneous {
		return fmt.Errorf("operation ceiling reached (%d active)", active)
	}

	pair, err := b.gate.GetAssetPair(ctx, pairName)
	if err != nil {
		return errors.Wrapf(err, "get asset pair %s", pairName)
	}
	if !pair.Tradable {
		return fmt.Errorf("pair %s is not tradable", pairName)
	}

	amount, err := b.resolveBudget(ctx, budget, pair)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.lastOperationID++
	id := fmt.Sprintf("%d", b.lastOperationID)
	b.mu.Unlock()

	logName := fmt.Sprintf("%s_%s", time.Now().Format("02-01-2006_15.04.05"), symbol)
	opLog, err := oplog.New(b.logsDir, logName)
	if err != nil {
		return errors.Wrap(err, "open operation log")
	}

	op, err := operation.Create(ctx, b.gate, b.cfg, operation.CreateParams{
		ID:     id,
		Symbol: symbol,
		Pair:   pair,
		Budget: amount,
	}, opLog, b.notifier)
	if err != nil {
		opLog.Close()
		return errors.Wrapf(err, "create operation %s", symbol)
	}

	b.mu.Lock()
	b.operations[pairName] = op
	b.mu.Unlock()

	go b.watch(op)
	return nil
}

// resolveBudget converts a percentage or absolute budget into USDT, checked
// against the available quote balance.
func (b *Bot) resolveBudget(ctx context.Context, budget models.Budget, pair models.AssetPair) (float64, error) {
	balance, err := b.gate.GetAvailableBalance(ctx, b.cfg.Gate.QuoteCurrency)
	if err != nil {
		return 0, operation.NewError(operation.ErrBalanceUnavailable,
			fmt.Sprintf("error retrieving %s balance", b.cfg.Gate.QuoteCurrency), err.Error())
	}

	var amount float64
	switch budget.Unit {
	case models.BudgetPercentage:
		amount = helper.ToFixed(helper.Percentage(balance, budget.Amount), pair.PricePrecision)
	case models.BudgetAbsolute:
		amount = helper.ToFixed(budget.Amount, pair.PricePrecision)
	}

	if amount <= 0 {
		return 0, fmt.Errorf("resolved budget %v is not positive (balance %v)", amount, balance)
	}
	if amount > balance {
		return 0, fmt.Errorf("resolved budget %v exceeds available balance %v", amount, balance)
	}
	return amount, nil
}

// watch drains the operation event stream and tears the operation down from
// the registry once it finishes.
func (b *Bot) watch(op *operation.Operation) {
	for ev := range op.Events() {
		switch ev.Kind {
		case operation.EventStarted:
			logger.Info("operation %s started on %s", op.ID, op.AssetPair)
			b.notifier.Sendf("▶️ %s: operation started", op.Symbol)
		case operation.EventFinished:
			b.mu.Lock()
			delete(b.operations, op.AssetPair)
			b.mu.Unlock()

			logger.Info("operation %s on %s finished: %s", op.ID, op.AssetPair, ev.Reason)
			b.notifier.Sendf("⏹ %s: operation finished (%s)", op.Symbol, ev.Reason)

			if b.archive != nil {
				rec := finishedRecord(op, ev)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := b.archive.SaveFinished(ctx, rec); err != nil {
					logger.Error("archive operation %s: %v", op.ID, err)
				}
				cancel()
			}
		}
	}
}

func finishedRecord(op *operation.Operation, ev operation.Event) FinishedOperation {
	entry := op.Entry()
	cause := ""
	if ev.Cause != nil {
		cause = ev.Cause.Error()
	}
	return FinishedOperation{
		ID:                  op.ID,
		AssetPair:           op.AssetPair,
		EndReason:           string(ev.Reason),
		Cause:               cause,
		EntryOrderID:        entry.OrderID,
		EntryFillPrice:      entry.FillPrice,
		EntryAmount:         entry.Amount,
		EntryCost:           entry.Cost,
		AmountPendingToSell: op.AmountPendingToSell(),
		Liquidations:        op.Liquidations(),
		StartedAt:           op.StartedAt,
		FinishedAt:          time.Now(),
	}
}

// Kill forces the operation with the given ID onto the error path.
func (b *Bot) Kill(ctx context.Context, id string) error {
	b.mu.Lock()
	var target *operation.Operation
	for _, op := range b.operations {
		if op.ID == id {
			target = op
			break
		}
	}
	b.mu.Unlock()

	if target == nil {
		return fmt.Errorf("no active operation with id %s", id)
	}
	target.Kill(ctx, "killed via console")
	return nil
}

// Snapshot lists the currently active operations.
func (b *Bot) Snapshot() []models.OperationSnapshot {
	b.mu.Lock()
	ops := make([]*operation.Operation, 0, len(b.operations))
	for _, op := range b.operations {
		ops = append(ops, op)
	}
	b.mu.Unlock()

	out := make([]models.OperationSnapshot, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Snapshot())
	}
	return out
}

// ActiveOperations reports the current registry size.
func (b *Bot) ActiveOperations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.operations)
}
