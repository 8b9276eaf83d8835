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

type SendBulkHandler struct {
	gate   Gate
	outbox Outbox
	logger *zap.SugaredLogger
}

type NewSendBulkHandlerParams struct {
	fx.In

	Gate   Gate
	Outbox Outbox
	Logger *zap.SugaredLogger
}

func NewSendBulkHandler(p NewSendBulkHandlerParams) *SendBulkHandler {
	return &SendBulkHandler{gate: p.Gate, outbox: p.Outbox, logger: p.Logger}
}

func (h *SendBulkHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/send-bulk", h.Handle)
}

type sendBulkRequest struct {
	// An empty array is accepted and yields no results.
	Phones  []string `json:"phones" validate:"required"`
	Message string   `json:"message" validate:"required"`
}

type sendBulkResponse struct {
	Success bool                     `json:"success"`
	BatchID string                   `json:"batch_id"`
	Results []outbox.RecipientResult `json:"results"`
}

func (h *SendBulkHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.gate.IsReady() {
		render.ChiErr(w, http.StatusServiceUnavailable, errNotConnected)
		return
	}

	var req sendBulkRequest
	if err := decode(r, &req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, `Se requiere un array de "phones" y un "message"`)
		return
	}

	batchID, results := h.outbox.SendBulk(r.Context(), req.Phones, req.Message)
	h.logger.Infow("send_bulk_done", "batch_id", batchID, "recipients", len(req.Phones))

	render.ChiJSON(w, http.StatusOK, sendBulkResponse{
		Success: true,
		BatchID: batchID,
		Results: results,
	})
}

var _ router.Handler = (*SendBulkHandler)(nil)
