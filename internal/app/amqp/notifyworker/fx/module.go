package fx

import (
	"context"

	"whatsapp-notifier/internal/app/amqp/notifyworker"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module consumes notification events. The host app provides the AMQP
// channel and *notify.Dispatcher.
var Module = fx.Module(
	"amqp-notifyworker",
	fx.Provide(
		fx.Annotate(
			notifyworker.NewNotifyHandler,
			fx.As(new(notifyworker.Handler)),
		),
		notifyworker.NewConsumer,
	),
	fx.Invoke(registerLifecycleHooks),
)

type hooksParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Consumer  *notifyworker.Consumer
	Logger    *zap.SugaredLogger
}

func registerLifecycleHooks(p hooksParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Infow("notifyworker_starting")
			return p.Consumer.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Infow("notifyworker_stopping")
			return p.Consumer.Stop(ctx)
		},
	})
}
