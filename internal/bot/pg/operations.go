package pg

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"pump_bot/internal/bot"
	"pump_bot/pkg/db"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS finished_operations (
	id                     TEXT        NOT NULL,
	asset_pair             TEXT        NOT NULL,
	end_reason             TEXT        NOT NULL,
	cause                  TEXT        NOT NULL DEFAULT '',
	entry_order_id         TEXT        NOT NULL,
	entry_fill_price       DOUBLE PRECISION NOT NULL,
	entry_amount           DOUBLE PRECISION NOT NULL,
	entry_cost             DOUBLE PRECISION NOT NULL,
	amount_pending_to_sell DOUBLE PRECISION NOT NULL,
	liquidations           JSONB       NOT NULL DEFAULT '[]',
	started_at             TIMESTAMPTZ NOT NULL,
	finished_at            TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (id, started_at)
)`

const insertQuery = `
INSERT INTO finished_operations (
	id, asset_pair, end_reason, cause, entry_order_id,
	entry_fill_price, entry_amount, entry_cost,
	amount_pending_to_sell, liquidations, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Operations archives finished operations into postgres. Write-only: the
// table is an audit trail, nothing is read back at runtime.
type Operations struct {
	tx db.TxManager
}

func NewOperations(tx db.TxManager) *Operations {
	return &Operations{tx: tx}
}

func (o *Operations) Init(ctx context.Context) error {
	return o.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createTableQuery)
		return errors.Wrap(err, "create finished_operations")
	})
}

func (o *Operations) SaveFinished(ctx context.Context, rec bot.FinishedOperation) error {
	liquidations, err := sonic.Marshal(rec.Liquidations)
	if err != nil {
		return errors.Wrap(err, "marshal liquidations")
	}

	return o.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertQuery,
			rec.ID, rec.AssetPair, rec.EndReason, rec.Cause, rec.EntryOrderID,
			rec.EntryFillPrice, rec.EntryAmount, rec.EntryCost,
			rec.AmountPendingToSell, liquidations, rec.StartedAt, rec.FinishedAt,
		)
		return errors.Wrap(err, "insert finished operation")
	})
}
