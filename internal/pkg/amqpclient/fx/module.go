package fx

import (
	"whatsapp-notifier/internal/pkg/amqpclient"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"amqp",
	fx.Provide(amqpclient.NewAMQP),
)
