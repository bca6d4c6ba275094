package postgres

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"pump_bot/internal/bot"
	"pump_bot/internal/bot/pg"
	"pump_bot/internal/modules/config"
	"pump_bot/pkg/db"
	"pump_bot/pkg/logger"
)

// Module provides the operation archive. With no DSN configured the archive
// is nil and the bot runs without persistence.
var Module = fx.Module("postgres",
	fx.Provide(
		newTxManager,
		newArchive,
	),
)

func newTxManager(lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.DB == "" {
		logger.Info("no database DSN configured, operation archive disabled")
		return nil, nil
	}

	pool, err := db.NewPool(context.Background(), db.PoolConfig{DSN: cfg.DB})
	if err != nil {
		return nil, errors.Wrap(err, "create pg pool")
	}

	manager := db.NewPgTxManager(pool)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			manager.Close()
			return nil
		},
	})
	return manager, nil
}

func newArchive(manager *db.PgTxManager) bot.Archive {
	if manager == nil {
		return nil
	}
	return pg.NewOperations(manager)
}
