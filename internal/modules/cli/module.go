package cli

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/bot"
	"pump_bot/internal/modules/cli/service"
)

var Module = fx.Module("cli",
	fx.Provide(
		func(b *bot.Bot) service.Trader { return b },
		service.NewConsole,
	),
	fx.Invoke(runConsole),
)

func runConsole(lc fx.Lifecycle, console *service.Console) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go console.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
