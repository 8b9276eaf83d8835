package messages

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"
	"whatsapp-notifier/internal/whatsapp"
)

// Notifier renders and sends a templated notification.
type Notifier interface {
	Dispatch(ctx context.Context, eventID string, req notify.Request) (outbox.Attempt, error)
}

type SendNotificationHandler struct {
	gate     Gate
	notifier Notifier
	logger   *zap.SugaredLogger
}

type NewSendNotificationHandlerParams struct {
	fx.In

	Gate     Gate
	Notifier Notifier
	Logger   *zap.SugaredLogger
}

func NewSendNotificationHandler(p NewSendNotificationHandlerParams) *SendNotificationHandler {
	return &SendNotificationHandler{gate: p.Gate, notifier: p.Notifier, logger: p.Logger}
}

func (h *SendNotificationHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/send-notification", h.Handle)
}

type sendNotificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Type    string `json:"type"`
	To      string `json:"to"`
}

func (h *SendNotificationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.gate.IsReady() {
		render.ChiErr(w, http.StatusServiceUnavailable, errNotConnected)
		return
	}

	var req notify.Request
	if err := decode(r, &req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, `Se requiere el campo "phone"`)
		return
	}

	a, err := h.notifier.Dispatch(r.Context(), middleware.GetReqID(r.Context()), req)
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrInvalidRequest):
		render.ChiErr(w, http.StatusBadRequest, `Se requiere el campo "phone"`)
		return
	case errors.Is(err, whatsapp.ErrNotReady):
		// Lost the session between the gate check and the send.
		render.ChiErr(w, http.StatusServiceUnavailable, errNotConnected)
		return
	default:
		h.logger.Errorw("send_notification_failed", "phone", req.Phone, "type", req.Type, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Infow("send_notification_ok", "id", a.ID, "type", req.Type, "chat_id", a.ChatID)
	render.ChiJSON(w, http.StatusOK, sendNotificationResponse{
		Success: true,
		Message: "Notificación enviada",
		Type:    req.Type,
		To:      req.Phone,
	})
}

var _ router.Handler = (*SendNotificationHandler)(nil)
