package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/whatsapp"
)

var ErrInvalidRequest = errors.New("invalid notification request")

type Gate interface {
	IsReady() bool
}

type Sender interface {
	Send(ctx context.Context, msg outbox.Message) (outbox.Attempt, error)
}

// Dispatcher delivers templated notifications for /send-notification, the
// queue consumer and the workflow function, through the shared outbox.
type Dispatcher struct {
	gate      Gate
	sender    Sender
	validator *validator.Validate
	logger    *zap.SugaredLogger
	now       func() time.Time
}

type NewDispatcherParams struct {
	fx.In

	Gate   Gate
	Sender Sender
	Logger *zap.SugaredLogger
}

func NewDispatcher(p NewDispatcherParams) *Dispatcher {
	return &Dispatcher{
		gate:      p.Gate,
		sender:    p.Sender,
		validator: validator.New(),
		logger:    p.Logger,
		now:       time.Now,
	}
}

// Dispatch returns an error wrapping ErrInvalidRequest for requests that can
// never succeed and whatsapp.ErrNotReady while the session is down.
func (d *Dispatcher) Dispatch(ctx context.Context, eventID string, req Request) (outbox.Attempt, error) {
	if err := d.validator.Struct(req); err != nil {
		return outbox.Attempt{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !d.gate.IsReady() {
		return outbox.Attempt{}, whatsapp.ErrNotReady
	}

	a, err := d.sender.Send(ctx, outbox.Message{
		Phone: req.Phone,
		Body:  req.Compose(d.now()),
		Kind:  outbox.KindNotification,
	})
	if err != nil {
		d.logger.Errorw("notification_dispatch_failed", "event_id", eventID, "type", req.Type, "err", err)
		return a, err
	}

	d.logger.Infow("notification_dispatched", "event_id", eventID, "type", req.Type, "delivery_id", a.ID)
	return a, nil
}
