package notifyworker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/pkg/amqpclient"
	"whatsapp-notifier/internal/whatsapp"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrHandlerMissing = errors.New("notifyworker handler missing")

const defaultRetryDelay = 5 * time.Second

type Handler interface {
	Handle(ctx context.Context, msg NotificationRequestedEnvelope) error
}

// Channel is the subset of *amqp.Channel the consumer uses.
type Channel interface {
	amqpclient.Declarer
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

type Consumer struct {
	cfg      *config.Config
	channel  Channel
	handler  Handler
	logger   *zap.SugaredLogger
	topology amqpclient.Topology

	consumerTag string
	retryDelay  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type NewConsumerParams struct {
	fx.In

	Config  *config.Config
	Channel *amqp.Channel `optional:"true"`
	Handler Handler       `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewConsumer(p NewConsumerParams) *Consumer {
	c := newConsumer(p.Config, nil, p.Handler, p.Logger)
	if p.Channel != nil {
		c.channel = p.Channel
	}
	return c
}

func newConsumer(cfg *config.Config, ch Channel, h Handler, logger *zap.SugaredLogger) *Consumer {
	if h == nil {
		h = missingHandler{}
	}
	return &Consumer{
		cfg:         cfg,
		channel:     ch,
		handler:     h,
		logger:      logger,
		topology:    amqpclient.TopologyFromConfig(cfg),
		consumerTag: "notifyworker",
		retryDelay:  defaultRetryDelay,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if c.cfg == nil || strings.TrimSpace(c.cfg.RabbitMQ.URL) == "" || c.channel == nil {
		c.logger.Infow("notifyworker_disabled", "reason", "missing rabbitmq config or channel")
		return nil
	}

	if c.cfg.RabbitMQ.DeclareTopology {
		if err := c.topology.Declare(c.channel); err != nil {
			return err
		}
		c.logger.Infow(
			"notifyworker_topology_declared",
			"exchange", c.topology.Exchange,
			"queue", c.topology.Queue,
			"routing_key", c.topology.RoutingKey,
			"dlx", c.topology.DLX(),
			"dlq", c.topology.DLQ(),
		)
	}

	prefetch := c.cfg.RabbitMQ.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.topology.Queue,
		c.consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.logger.Infow(
		"notifyworker_started",
		"queue", c.topology.Queue,
		"prefetch", prefetch,
	)

	// The start context ends with OnStart; the loop lives until Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.handleDelivery(runCtx, d)
			}
		}
	}()

	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	if c.channel == nil || c.cancel == nil {
		return nil
	}
	_ = c.channel.Cancel(c.consumerTag, false)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	eventID := strings.TrimSpace(d.MessageId)
	if eventID == "" {
		eventID = strings.TrimSpace(d.CorrelationId)
	}

	var msg NotificationRequestedEnvelope
	dec := json.NewDecoder(bytes.NewReader(d.Body))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		c.logger.Errorw("notifyworker_invalid_json",
			"err", err,
			"message_id", eventID,
		)
		_ = d.Reject(false)
		return
	}

	if strings.TrimSpace(msg.EventID) == "" {
		msg.EventID = eventID
	}

	err := c.handler.Handle(ctx, msg)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, whatsapp.ErrNotReady):
		c.logger.Warnw("notifyworker_not_ready_requeue",
			"event_id", msg.EventID,
			"retry_in", c.retryDelay,
		)
		t := time.NewTimer(c.retryDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
		_ = d.Nack(false, true)
	default:
		c.logger.Errorw("notifyworker_handle_failed",
			"err", err,
			"event_id", msg.EventID,
			"event_name", msg.EventName,
		)
		_ = d.Reject(false)
	}
}

type missingHandler struct{}

func (missingHandler) Handle(context.Context, NotificationRequestedEnvelope) error {
	return ErrHandlerMissing
}
