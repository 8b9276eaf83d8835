package amqpclient

import (
	"fmt"
	"strings"

	"whatsapp-notifier/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange   = "events"
	DefaultRoutingKey = "whatsapp.notification.requested.v1"
)

// Topology names the exchange, queue and binding for notification events.
// Failed deliveries dead-letter to <exchange>.dlx / <queue>.dlq.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

func TopologyFromConfig(cfg *config.Config) Topology {
	t := Topology{
		Exchange:   DefaultExchange,
		Queue:      DefaultRoutingKey,
		RoutingKey: DefaultRoutingKey,
	}
	if cfg == nil {
		return t
	}
	if v := strings.TrimSpace(cfg.RabbitMQ.Exchange); v != "" {
		t.Exchange = v
	}
	if v := strings.TrimSpace(cfg.RabbitMQ.Queue); v != "" {
		t.Queue = v
	}
	if v := strings.TrimSpace(cfg.RabbitMQ.RoutingKey); v != "" {
		t.RoutingKey = v
	}
	return t
}

func (t Topology) DLX() string { return t.Exchange + ".dlx" }

func (t Topology) DLQ() string { return t.Queue + ".dlq" }

// Declarer is the subset of *amqp.Channel needed to declare a topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareExchange declares only the topic exchange; publishers need nothing
// more.
func (t Topology) DeclareExchange(ch Declarer) error {
	if err := ch.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq exchange declare %q: %w", t.Exchange, err)
	}
	return nil
}

// Declare sets up the exchange, queue, and their dead-letter pair.
func (t Topology) Declare(ch Declarer) error {
	if err := t.DeclareExchange(ch); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(t.DLX(), "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlx exchange declare %q: %w", t.DLX(), err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": t.DLX(),
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("rabbitmq queue declare %q: %w", t.Queue, err)
	}
	if _, err := ch.QueueDeclare(t.DLQ(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq declare %q: %w", t.DLQ(), err)
	}

	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue bind queue=%q key=%q ex=%q: %w", t.Queue, t.RoutingKey, t.Exchange, err)
	}
	if err := ch.QueueBind(t.DLQ(), t.RoutingKey, t.DLX(), false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq bind queue=%q key=%q ex=%q: %w", t.DLQ(), t.RoutingKey, t.DLX(), err)
	}
	return nil
}
