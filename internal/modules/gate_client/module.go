package gate_client

import (
	"go.uber.org/fx"

	"pump_bot/internal/bot/operation"
	"pump_bot/internal/modules/gate_client/service"
)

var Module = fx.Module("gate_client",
	fx.Provide(
		service.NewClient,
		func(c *service.Client) operation.Exchange { return c },
	),
)
