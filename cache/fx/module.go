package fx

import (
	"whatsapp-notifier/cache"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"redis",
	fx.Provide(
		cache.NewRedis,
		cache.NewLifecycleMirror,
	),
	fx.Invoke(cache.RegisterLifecycleMirror),
)
