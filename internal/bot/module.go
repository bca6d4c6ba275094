package bot

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/models"
)

var Module = fx.Module("bot",
	fx.Provide(New),
	fx.Invoke(runBot),
)

// runBot wires the signal stream into the admission pipeline for the whole
// process lifetime.
func runBot(lc fx.Lifecycle, b *Bot, signals chan models.Signal) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := b.Start(startCtx); err != nil {
				return err
			}
			go func() {
				for sig := range signals {
					b.HandleSignal(ctx, sig)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
