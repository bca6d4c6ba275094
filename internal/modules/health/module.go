package health

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/bot"
	"pump_bot/internal/modules/health/service"
	hub "pump_bot/internal/modules/signals_hub/service"
	"pump_bot/pkg/logger"
)

var Module = fx.Module("health",
	fx.Provide(
		func(b *bot.Bot) service.OperationCounter { return b },
		service.NewState,
	),
	fx.Invoke(runHealth),
)

func runHealth(lc fx.Lifecycle, state *service.State, hubSrv *hub.Server) {
	hubSrv.SetOnSignal(state.SignalSeen)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := state.Start(); err != nil {
					logger.Fatal("health endpoint: %v", err)
				}
			}()
			state.SetReady(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return state.Stop(ctx)
		},
	})
}
