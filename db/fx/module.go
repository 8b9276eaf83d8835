package fx

import (
	"whatsapp-notifier/db"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"sqlx-delivery-db",
	fx.Provide(db.NewDB),
)
