package notification

import (
	"context"
	"errors"
	"fmt"

	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/whatsapp"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const RequestedEventName = "whatsapp/notification.requested"

type dispatcher interface {
	Dispatch(ctx context.Context, eventID string, req notify.Request) (outbox.Attempt, error)
}

type Function struct {
	dispatcher dispatcher
	logger     *zap.SugaredLogger
}

type NewFunctionParams struct {
	fx.In

	Dispatcher *notify.Dispatcher
	Logger     *zap.SugaredLogger
}

func NewFunction(p NewFunctionParams) *Function {
	return &Function{dispatcher: p.Dispatcher, logger: p.Logger}
}

type Result struct {
	DeliveryID string `json:"delivery_id"`
	ChatID     string `json:"chat_id"`
}

func (f *Function) Handle(ctx context.Context, input inngestgo.Input[notify.Request]) (any, error) {
	eventID := ""
	if input.Event.ID != nil {
		eventID = *input.Event.ID
	}

	return step.Run(ctx, "send-notification", func(ctx context.Context) (Result, error) {
		f.logger.Infow("inngest_step",
			"step", "send-notification",
			"event_id", eventID,
			"type", input.Event.Data.Type,
		)
		return f.send(ctx, eventID, input.Event.Data)
	})
}

// send dispatches one notification. Only a client that is not ready yet is
// worth retrying; everything else fails the run.
func (f *Function) send(ctx context.Context, eventID string, req notify.Request) (Result, error) {
	a, err := f.dispatcher.Dispatch(ctx, eventID, req)
	switch {
	case err == nil:
		f.logger.Infow("inngest_notification_sent",
			"event_id", eventID,
			"delivery_id", a.ID,
			"chat_id", a.ChatID,
		)
		return Result{DeliveryID: a.ID, ChatID: a.ChatID}, nil
	case errors.Is(err, whatsapp.ErrNotReady):
		f.logger.Warnw("inngest_notification_not_ready", "event_id", eventID)
		return Result{}, err
	default:
		f.logger.Errorw("inngest_notification_failed", "event_id", eventID, "err", err)
		return Result{}, inngestgo.NoRetryError(fmt.Errorf("send notification: %w", err))
	}
}
