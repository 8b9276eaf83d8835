package fx

import (
	"go.uber.org/fx"

	cachefx "whatsapp-notifier/cache/fx"
	dbfx "whatsapp-notifier/db/fx"
	deliveriesfx "whatsapp-notifier/internal/app/deliveries/fx"
	"whatsapp-notifier/internal/logs"
	notifyfx "whatsapp-notifier/internal/notify/fx"
	amqpclientfx "whatsapp-notifier/internal/pkg/amqpclient/fx"
	whatsappfx "whatsapp-notifier/internal/whatsapp/fx"
)

// Module is everything a process needs to own the WhatsApp session and send:
// config, logging, the optional stores and brokers, the automation client,
// the outbox, and the notification dispatcher. Entry points add their own
// transports on top.
var Module = fx.Options(
	CoreAppOptions,
	fx.Invoke(logs.RegisterLifecycle),
	dbfx.Module,
	cachefx.Module,
	amqpclientfx.Module,
	deliveriesfx.Module,
	whatsappfx.Module,
	notifyfx.Module,
)
