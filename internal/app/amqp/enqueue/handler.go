package enqueue

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/app/amqp/notifyworker"
	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/pkg/amqpclient"
	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type publishFunc func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

// Handler accepts a notification over HTTP and hands it to RabbitMQ, leaving
// the send to the notifyworker consumer.
type Handler struct {
	cfg      *config.Config
	declarer amqpclient.Declarer
	logger   *zap.SugaredLogger
	validate *validator.Validate

	publish publishFunc
	newID   func() string
}

type NewHandlerParams struct {
	fx.In

	Cfg     *config.Config
	Channel *amqp.Channel `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewHandler(p NewHandlerParams) *Handler {
	h := &Handler{
		cfg:      p.Cfg,
		logger:   p.Logger,
		validate: validator.New(),
		newID:    uuid.NewString,
	}
	if p.Channel != nil {
		h.declarer = p.Channel
		h.publish = p.Channel.PublishWithContext
	}
	return h
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/notifications/enqueue", h.Handle)
}

type enqueueResponse struct {
	OK      bool   `json:"ok"`
	EventID string `json:"event_id"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req notify.Request
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if err := h.validate.Struct(req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "missing phone")
		return
	}

	if h.cfg == nil || strings.TrimSpace(h.cfg.RabbitMQ.URL) == "" || h.publish == nil {
		render.ChiErr(w, http.StatusServiceUnavailable, "rabbitmq disabled")
		return
	}

	t := amqpclient.TopologyFromConfig(h.cfg)
	now := time.Now().UTC()
	eventID := h.newID()

	body, err := json.Marshal(notifyworker.NotificationRequestedEnvelope{
		EventName: notifyworker.EventName,
		EventID:   eventID,
		TS:        now,
		Data:      req,
	})
	if err != nil {
		h.logger.Errorw("enqueue_marshal_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to encode message")
		return
	}

	if h.declarer != nil && h.cfg.RabbitMQ.DeclareTopology {
		if err := t.DeclareExchange(h.declarer); err != nil {
			h.logger.Errorw("enqueue_exchange_declare_failed", "exchange", t.Exchange, "err", err)
			render.ChiErr(w, http.StatusBadGateway, "rabbitmq exchange declare failed: "+t.Exchange)
			return
		}
	}

	if err := h.publish(r.Context(), t.Exchange, t.RoutingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    now,
		MessageId:    eventID,
		Body:         body,
	}); err != nil {
		h.logger.Errorw(
			"enqueue_publish_failed",
			"exchange", t.Exchange,
			"routing_key", t.RoutingKey,
			"event_id", eventID,
			"err", err,
		)
		render.ChiErr(w, http.StatusBadGateway, "failed to publish message")
		return
	}

	h.logger.Infow("enqueue_published",
		"exchange", t.Exchange,
		"routing_key", t.RoutingKey,
		"event_id", eventID,
		"type", req.Type,
	)
	render.ChiJSON(w, http.StatusAccepted, enqueueResponse{OK: true, EventID: eventID})
}

var _ router.Handler = (*Handler)(nil)
