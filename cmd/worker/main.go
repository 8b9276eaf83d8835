package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	notifyworkerfx "whatsapp-notifier/internal/app/amqp/notifyworker/fx"
	appfx "whatsapp-notifier/internal/app/fx"
)

// worker owns the WhatsApp session and only drains the RabbitMQ notification
// queue. Run it instead of cmd/server, never next to it: both would fight
// over the same browser profile.
func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.Module,
		notifyworkerfx.Module,
	)

	app.Run()
}
