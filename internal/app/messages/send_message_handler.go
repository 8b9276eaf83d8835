package messages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"
)

type SendMessageHandler struct {
	gate   Gate
	outbox Outbox
	logger *zap.SugaredLogger
}

type NewSendMessageHandlerParams struct {
	fx.In

	Gate   Gate
	Outbox Outbox
	Logger *zap.SugaredLogger
}

func NewSendMessageHandler(p NewSendMessageHandlerParams) *SendMessageHandler {
	return &SendMessageHandler{gate: p.Gate, outbox: p.Outbox, logger: p.Logger}
}

func (h *SendMessageHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/send-message", h.Handle)
}

type sendMessageRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type sendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	To      string `json:"to"`
}

func (h *SendMessageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.gate.IsReady() {
		render.ChiErr(w, http.StatusServiceUnavailable, errNotConnectedVerbose)
		return
	}

	var req sendMessageRequest
	if err := decode(r, &req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, `Se requieren los campos "phone" y "message"`)
		return
	}

	a, err := h.outbox.Send(r.Context(), outbox.Message{
		Phone: req.Phone,
		Body:  req.Message,
		Kind:  outbox.KindSingle,
	})
	if err != nil {
		h.logger.Errorw("send_message_failed", "phone", req.Phone, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Infow("send_message_ok", "id", a.ID, "chat_id", a.ChatID)
	render.ChiJSON(w, http.StatusOK, sendMessageResponse{
		Success: true,
		Message: "Mensaje enviado correctamente",
		To:      req.Phone,
	})
}

var _ router.Handler = (*SendMessageHandler)(nil)
