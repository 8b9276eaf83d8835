package whatsapp

import "context"

type RunOptions struct {
	// ExecutablePath is empty when no local browser was found; the client
	// then uses its bundled browser.
	ExecutablePath string
}

// Client is the browser automation collaborator. Run blocks until ctx is
// cancelled or the browser goes away, reporting lifecycle events to emit.
type Client interface {
	Run(ctx context.Context, opts RunOptions, emit func(Event)) error
	SendMessage(ctx context.Context, chatID, text string) error
	Close() error
}
