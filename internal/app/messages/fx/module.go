package fx

import (
	"whatsapp-notifier/internal/app/messages"
	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/router"
	"whatsapp-notifier/internal/whatsapp"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"messages",
	fx.Provide(
		func(m *whatsapp.Manager) messages.Gate { return m },
		func(q *outbox.Queue) messages.Outbox { return q },
		func(d *notify.Dispatcher) messages.Notifier { return d },
		router.AsRoute(messages.NewSendMessageHandler),
		router.AsRoute(messages.NewSendBulkHandler),
		router.AsRoute(messages.NewSendNotificationHandler),
	),
)
