package fx

import (
	"go.uber.org/fx"

	"whatsapp-notifier/internal/app/health"
	"whatsapp-notifier/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
