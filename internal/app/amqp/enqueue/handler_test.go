package enqueue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/app/amqp/notifyworker"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(cfg *config.Config, publish publishFunc) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   zap.NewNop().Sugar(),
		validate: validator.New(),
		publish:  publish,
		newID:    func() string { return "evt-1" },
	}
}

func enabledConfig() *config.Config {
	cfg := &config.Config{}
	cfg.RabbitMQ.URL = "amqp://example"
	return cfg
}

func TestHandler_Handle_BadJSON(t *testing.T) {
	h := newTestHandler(&config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Handle_MissingPhone(t *testing.T) {
	h := newTestHandler(enabledConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(`{"phone":"  ","type":"alert"}`))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing phone")
}

func TestHandler_Handle_RabbitMQDisabled(t *testing.T) {
	h := newTestHandler(&config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(`{"phone":"569"}`))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "rabbitmq disabled")
}

func TestHandler_Handle_PublishFailure(t *testing.T) {
	h := newTestHandler(enabledConfig(), func(context.Context, string, string, bool, bool, amqp.Publishing) error {
		return errors.New("channel closed")
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(`{"phone":"569"}`))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_Handle_PublishesEnvelope(t *testing.T) {
	var gotExchange, gotKey string
	var gotPublishing amqp.Publishing

	h := newTestHandler(enabledConfig(), func(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
		gotExchange = exchange
		gotKey = key
		gotPublishing = msg
		return nil
	})

	body := `{"phone":"56912345678","type":"new_order","data":{"orderId":"A-1","total":19990}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(body))
	w := httptest.NewRecorder()

	before := time.Now().UTC().Add(-time.Second)
	h.Handle(w, req)
	after := time.Now().UTC().Add(time.Second)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp enqueueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.Equal(t, "evt-1", resp.EventID)

	require.Equal(t, "events", gotExchange)
	require.Equal(t, "whatsapp.notification.requested.v1", gotKey)
	require.Equal(t, "application/json", gotPublishing.ContentType)
	require.Equal(t, amqp.Persistent, gotPublishing.DeliveryMode)
	require.Equal(t, "evt-1", gotPublishing.MessageId)
	require.True(t, gotPublishing.Timestamp.After(before) && gotPublishing.Timestamp.Before(after))

	var env notifyworker.NotificationRequestedEnvelope
	require.NoError(t, json.Unmarshal(gotPublishing.Body, &env))
	require.Equal(t, notifyworker.EventName, env.EventName)
	require.Equal(t, "evt-1", env.EventID)
	require.Equal(t, "56912345678", env.Data.Phone)
	require.Equal(t, "new_order", env.Data.Type)
	require.Equal(t, "A-1", env.Data.Data["orderId"])
}

type declarerStub struct {
	exchanges []string
	err       error
}

func (d *declarerStub) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	d.exchanges = append(d.exchanges, name)
	return d.err
}

func (d *declarerStub) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{}, nil
}

func (d *declarerStub) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}

func TestHandler_Handle_DeclaresExchangeWhenConfigured(t *testing.T) {
	cfg := enabledConfig()
	cfg.RabbitMQ.DeclareTopology = true
	cfg.RabbitMQ.Exchange = "notify"

	published := false
	h := newTestHandler(cfg, func(context.Context, string, string, bool, bool, amqp.Publishing) error {
		published = true
		return nil
	})
	d := &declarerStub{}
	h.declarer = d

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(`{"phone":"569"}`))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []string{"notify"}, d.exchanges)
	require.True(t, published)

	d.err = errors.New("access refused")
	published = false
	w = httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPost, "/v1/notifications/enqueue", strings.NewReader(`{"phone":"569"}`)))

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.False(t, published)
}
