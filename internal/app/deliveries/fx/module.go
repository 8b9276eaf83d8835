package fx

import (
	"whatsapp-notifier/internal/app/deliveries"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/router"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"deliveries",
	fx.Provide(
		deliveries.NewStore,
		func(s *deliveries.Store) outbox.Recorder { return s },
		router.AsRoute(deliveries.NewGetByIDHandler),
	),
)
