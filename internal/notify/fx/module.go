package fx

import (
	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/whatsapp"

	"go.uber.org/fx"
)

// Module provides the dispatcher shared by the queue consumer and the
// Inngest function.
var Module = fx.Module(
	"notify",
	fx.Provide(
		func(m *whatsapp.Manager) notify.Gate { return m },
		func(q *outbox.Queue) notify.Sender { return q },
		notify.NewDispatcher,
	),
)
