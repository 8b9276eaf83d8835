package fx

import (
	"whatsapp-notifier/internal/app/amqp/enqueue"
	"whatsapp-notifier/internal/router"

	"go.uber.org/fx"
)

// Module registers POST /v1/notifications/enqueue. The AMQP channel comes from
// amqpclient/fx and is optional.
var Module = fx.Module(
	"amqp-enqueue",
	fx.Provide(router.AsRoute(enqueue.NewHandler)),
)
