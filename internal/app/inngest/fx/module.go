package fx

import (
	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/app/inngest"
	"whatsapp-notifier/internal/app/inngest/notification"
	pkginngest "whatsapp-notifier/internal/pkg/inngest"
	"whatsapp-notifier/internal/router"

	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module serves the Inngest endpoint and registers the notification
// function. The host app provides *notify.Dispatcher.
var Module = fx.Module(
	"inngest",
	fx.Provide(
		pkginngest.NewInngestClient,
		notification.NewFunction,
		router.AsRoute(inngest.NewInngestHandler),
	),
	fx.Invoke(registerFunctions),
)

func registerFunctions(
	cfg *config.Config,
	client inngestgo.Client,
	fn *notification.Function,
	logger *zap.SugaredLogger,
) error {
	if !pkginngest.Enabled(cfg) {
		logger.Infow("inngest_disabled", "reason", "missing INNGEST_APP_ID")
		return nil
	}

	_, err := inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID:          "send-whatsapp-notification",
			Idempotency: inngestgo.StrPtr("event.id"),
			// Retries cover the window where the session is still connecting.
			Retries: inngestgo.IntPtr(5),
		},
		inngestgo.EventTrigger(notification.RequestedEventName, nil),
		fn.Handle,
	)
	if err != nil {
		logger.Errorw("inngest_create_function_failed", "err", err)
		return err
	}

	logger.Infow("inngest_enabled",
		"path", pkginngest.ServePath(cfg),
		"event", notification.RequestedEventName,
	)
	return nil
}
