package fx

import (
	"whatsapp-notifier/internal/app/status"
	"whatsapp-notifier/internal/router"
	"whatsapp-notifier/internal/whatsapp"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"status",
	fx.Provide(
		func(m *whatsapp.Manager) status.Source { return m },
		router.AsRoute(status.NewHandler),
		router.AsRoute(status.NewQRHandler),
	),
)
