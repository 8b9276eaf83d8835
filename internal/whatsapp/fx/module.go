package fx

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/browser"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/session"
	"whatsapp-notifier/internal/whatsapp"
)

// Module wires the automation client, its lifecycle manager and the send
// queue. Handlers depend on *whatsapp.Manager and *outbox.Queue.
var Module = fx.Module(
	"whatsapp",
	fx.Provide(
		whatsapp.NewManager,
		session.NewSweeper,
		browser.NewLocator,
		fx.Annotate(
			whatsapp.NewPlaywrightClient,
			fx.As(new(whatsapp.Client)),
		),
		NewQueue,
		NewBootstrap,
	),
	fx.Invoke(RegisterLifecycle),
)

type queueParams struct {
	fx.In

	Cfg      *config.Config
	Client   whatsapp.Client
	Recorder outbox.Recorder `optional:"true"`
	Logger   *zap.SugaredLogger
}

func NewQueue(p queueParams) *outbox.Queue {
	return outbox.New(p.Client, p.Recorder, outbox.OptionsFromConfig(p.Cfg), p.Logger)
}

func NewBootstrap(
	cfg *config.Config,
	sweeper *session.Sweeper,
	locator *browser.Locator,
	client whatsapp.Client,
	manager *whatsapp.Manager,
	logger *zap.SugaredLogger,
) *whatsapp.Bootstrap {
	return whatsapp.NewBootstrap(cfg.Session.Dir, sweeper, locator, client, manager, logger)
}

type lifecycleParams struct {
	fx.In

	Lc        fx.Lifecycle
	Bootstrap *whatsapp.Bootstrap
	Queue     *outbox.Queue
	Manager   *whatsapp.Manager
	Logger    *zap.SugaredLogger
}

func RegisterLifecycle(p lifecycleParams) {
	var cancelAnnounce func()
	announced := make(chan struct{})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ch, cancel := p.Manager.Subscribe(8)
			cancelAnnounce = cancel
			go func() {
				defer close(announced)
				whatsapp.Announce(ch, os.Stdout, p.Logger)
			}()

			p.Queue.Start()
			return p.Bootstrap.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := p.Queue.Stop(ctx); err != nil {
				p.Logger.Warnw("outbox_stop_failed", "err", err)
			}
			err := p.Bootstrap.Stop(ctx)
			cancelAnnounce()
			<-announced
			return err
		},
	})
}
