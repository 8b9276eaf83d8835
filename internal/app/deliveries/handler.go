package deliveries

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/db"
	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"
)

type GetByIDHandler struct {
	store  *Store
	logger *zap.SugaredLogger
}

type NewGetByIDHandlerParams struct {
	fx.In

	Store  *Store
	Logger *zap.SugaredLogger
}

func NewGetByIDHandler(p NewGetByIDHandlerParams) *GetByIDHandler {
	return &GetByIDHandler{store: p.Store, logger: p.Logger}
}

func (h *GetByIDHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/deliveries/{id}", h.Handle)
}

type deliveryResponse struct {
	ID          string  `json:"id"`
	BatchID     *string `json:"batch_id"`
	Kind        string  `json:"kind"`
	Phone       string  `json:"phone"`
	ChatID      string  `json:"chat_id"`
	Body        string  `json:"body"`
	Status      string  `json:"status"`
	Error       *string `json:"error"`
	CreatedAtMs int64   `json:"created_at_ms"`
	UpdatedAtMs int64   `json:"updated_at_ms"`
}

func (h *GetByIDHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing id")
		return
	}

	d, err := h.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrStoreDisabled):
		render.ChiErr(w, http.StatusServiceUnavailable, "delivery store disabled")
		return
	case errors.Is(err, ErrNotFound):
		render.ChiErr(w, http.StatusNotFound, "not found")
		return
	case err != nil:
		h.logger.Errorw("delivery_get_by_id_failed", "id", id, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to fetch delivery")
		return
	}

	render.ChiJSON(w, http.StatusOK, deliveryResponse{
		ID:          d.ID,
		BatchID:     nullableString(d.BatchID.String),
		Kind:        d.Kind,
		Phone:       d.Phone,
		ChatID:      d.ChatID,
		Body:        d.Body,
		Status:      d.Status,
		Error:       nullableString(d.Error.String),
		CreatedAtMs: d.CreatedAtMs,
		UpdatedAtMs: d.UpdatedAtMs,
	})
}

func nullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

var _ router.Handler = (*GetByIDHandler)(nil)
