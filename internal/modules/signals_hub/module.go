package signals_hub

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/models"
	"pump_bot/internal/modules/signals_hub/service"
	"pump_bot/pkg/logger"
)

var Module = fx.Module("signals_hub",
	fx.Provide(
		newSignalStream,
		service.NewServer,
	),
	fx.Invoke(runServer),
)

func newSignalStream() chan models.Signal {
	return make(chan models.Signal, 64)
}

func runServer(lc fx.Lifecycle, srv *service.Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Fatal("signals hub: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
