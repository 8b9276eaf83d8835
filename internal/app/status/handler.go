package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"
	"whatsapp-notifier/internal/whatsapp"
)

// Source exposes the read side of the connection lifecycle.
type Source interface {
	State() whatsapp.State
	QRCode() string
}

type Handler struct {
	source Source
}

type NewHandlerParams struct {
	fx.In

	Source Source
}

func NewHandler(p NewHandlerParams) *Handler {
	return &Handler{source: p.Source}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Get("/status", h.Handle)
}

type statusResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	State   whatsapp.State `json:"state"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	state := h.source.State()
	resp := statusResponse{
		Status:  "not_ready",
		Message: "WhatsApp no está conectado. Escanea el QR.",
		State:   state,
	}
	if state == whatsapp.StateReady {
		resp.Status = "ready"
		resp.Message = "WhatsApp está conectado"
	}
	render.ChiJSON(w, http.StatusOK, resp)
}

var _ router.Handler = (*Handler)(nil)
