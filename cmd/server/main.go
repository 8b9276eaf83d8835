package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	enqueuefx "whatsapp-notifier/internal/app/amqp/enqueue/fx"
	notifyworkerfx "whatsapp-notifier/internal/app/amqp/notifyworker/fx"
	appfx "whatsapp-notifier/internal/app/fx"
	healthfx "whatsapp-notifier/internal/app/health/fx"
	inngestfx "whatsapp-notifier/internal/app/inngest/fx"
	messagesfx "whatsapp-notifier/internal/app/messages/fx"
	statusfx "whatsapp-notifier/internal/app/status/fx"
	routerfx "whatsapp-notifier/internal/router/fx"
	serverfx "whatsapp-notifier/internal/server/fx"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.Module,
		notifyworkerfx.Module,
		routerfx.CoreRouterOptions,
		healthfx.Module,
		statusfx.Module,
		messagesfx.Module,
		enqueuefx.Module,
		inngestfx.Module,
		// Registered last so the HTTP server stops before the session does.
		serverfx.Module,
	)

	app.Run()
}
