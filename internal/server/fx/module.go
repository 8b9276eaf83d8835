package fx

import (
	"go.uber.org/fx"

	"whatsapp-notifier/internal/server"
)

var Module = fx.Options(
	fx.Provide(server.NewHTTPServer),
	fx.Invoke(RegisterHTTPServerLifecycle),
)
