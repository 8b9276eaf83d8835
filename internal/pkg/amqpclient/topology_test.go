package amqpclient

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
)

type fakeDeclarer struct {
	exchanges []string
	queues    map[string]amqp.Table
	bindings  []string
	failOn    string
}

func (f *fakeDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if name == f.failOn {
		return errors.New("access refused")
	}
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if f.queues == nil {
		f.queues = map[string]amqp.Table{}
	}
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeDeclarer) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, exchange+"->"+name+"#"+key)
	return nil
}

func TestTopologyFromConfig_Defaults(t *testing.T) {
	got := TopologyFromConfig(&config.Config{})

	require.Equal(t, Topology{
		Exchange:   "events",
		Queue:      "whatsapp.notification.requested.v1",
		RoutingKey: "whatsapp.notification.requested.v1",
	}, got)
	require.Equal(t, "events.dlx", got.DLX())
	require.Equal(t, "whatsapp.notification.requested.v1.dlq", got.DLQ())
}

func TestTopology_Declare(t *testing.T) {
	d := &fakeDeclarer{}
	top := Topology{Exchange: "ex", Queue: "q", RoutingKey: "k"}

	require.NoError(t, top.Declare(d))
	require.Equal(t, []string{"ex:topic", "ex.dlx:topic"}, d.exchanges)
	require.Equal(t, amqp.Table{"x-dead-letter-exchange": "ex.dlx"}, d.queues["q"])
	require.Contains(t, d.queues, "q.dlq")
	require.Equal(t, []string{"ex->q#k", "ex.dlx->q.dlq#k"}, d.bindings)
}

func TestTopology_DeclareExchangeError(t *testing.T) {
	d := &fakeDeclarer{failOn: "ex"}

	err := Topology{Exchange: "ex", Queue: "q", RoutingKey: "k"}.Declare(d)
	require.ErrorContains(t, err, `exchange declare "ex"`)
}

func TestNewAMQP_DisabledWithoutURL(t *testing.T) {
	out, err := NewAMQP(NewAMQPParams{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    &config.Config{},
		Logger:    zap.NewNop().Sugar(),
	})

	require.NoError(t, err)
	require.Nil(t, out.Conn)
	require.Nil(t, out.Channel)
}
