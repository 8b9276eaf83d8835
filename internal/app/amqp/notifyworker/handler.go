package notifyworker

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
)

type dispatcher interface {
	Dispatch(ctx context.Context, eventID string, req notify.Request) (outbox.Attempt, error)
}

type NotifyHandler struct {
	dispatcher dispatcher
	logger     *zap.SugaredLogger
}

type NewNotifyHandlerParams struct {
	fx.In

	Dispatcher *notify.Dispatcher
	Logger     *zap.SugaredLogger
}

func NewNotifyHandler(p NewNotifyHandlerParams) *NotifyHandler {
	return &NotifyHandler{dispatcher: p.Dispatcher, logger: p.Logger}
}

func (h *NotifyHandler) Handle(ctx context.Context, msg NotificationRequestedEnvelope) error {
	if msg.EventName != "" && msg.EventName != EventName {
		return fmt.Errorf("unexpected event_name: %s", msg.EventName)
	}

	a, err := h.dispatcher.Dispatch(ctx, msg.EventID, msg.Data)
	if err != nil {
		return err
	}

	h.logger.Infow("notifyworker_finished",
		"event_id", msg.EventID,
		"delivery_id", a.ID,
		"chat_id", a.ChatID,
	)
	return nil
}
