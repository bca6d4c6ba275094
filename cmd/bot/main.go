package main

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/bot"
	"pump_bot/internal/modules/cli"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/modules/gate_client"
	"pump_bot/internal/modules/health"
	"pump_bot/internal/modules/postgres"
	"pump_bot/internal/modules/signals_hub"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
	"pump_bot/pkg/tracing"
)

const serviceName = "pump_bot"

func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	logger.SetServiceName(serviceName)

	app := fx.New(
		config.Module(),
		fx.Provide(newNotifier),
		gate_client.Module,
		postgres.Module,
		bot.Module,
		signals_hub.Module,
		health.Module,
		cli.Module,
		fx.Invoke(initTracing),
	)
	app.Run()
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token == "" {
		logger.Info("no telegram token configured, notifications go to stdout")
		return notify.NewStdout()
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error("telegram init failed, falling back to stdout: %v", err)
		return notify.NewStdout()
	}
	return tg
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Tracing.Host == "" {
		return nil
	}
	tracing.SetServiceName(serviceName)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
