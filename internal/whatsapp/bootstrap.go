package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"whatsapp-notifier/internal/browser"
)

type LockSweeper interface {
	Sweep(root string)
}

type ExecutableLocator interface {
	Locate() (browser.Location, bool)
}

// Bootstrap runs the startup sequence: clear stale profile locks, find a
// browser, then hand the client to a background goroutine whose events
// drive the manager.
type Bootstrap struct {
	sessionDir string
	sweeper    LockSweeper
	locator    ExecutableLocator
	client     Client
	manager    *Manager
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBootstrap(
	sessionDir string,
	sweeper LockSweeper,
	locator ExecutableLocator,
	client Client,
	manager *Manager,
	logger *zap.SugaredLogger,
) *Bootstrap {
	return &Bootstrap{
		sessionDir: sessionDir,
		sweeper:    sweeper,
		locator:    locator,
		client:     client,
		manager:    manager,
		logger:     logger,
	}
}

// Start sweeps and locates synchronously, then returns while the client
// keeps running until Stop.
func (b *Bootstrap) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return errors.New("whatsapp bootstrap already started")
	}

	b.sweeper.Sweep(b.sessionDir)

	opts := RunOptions{}
	if loc, ok := b.locator.Locate(); ok {
		opts.ExecutablePath = loc.Path
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.cancel, b.done = cancel, done

	go func() {
		defer close(done)
		b.logger.Infow("whatsapp_client_starting", "session_dir", b.sessionDir, "executable", opts.ExecutablePath)
		err := b.client.Run(runCtx, opts, func(ev Event) { b.manager.Apply(ev) })
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Errorw("whatsapp_client_stopped", "err", err)
			return
		}
		b.logger.Infow("whatsapp_client_stopped")
	}()
	return nil
}

// Stop cancels the client loop, waits for it, then closes the browser.
func (b *Bootstrap) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			b.logger.Warnw("whatsapp_client_stop_timeout")
		}
	}

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close whatsapp client: %w", err)
	}
	return nil
}
