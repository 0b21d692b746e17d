package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology is a durable exchange with an optional queue bound to it.
type Topology struct {
	Exchange   string
	Kind       string
	Queue      string
	RoutingKey string
}

// EmailTopology is the direct exchange carrying email requests.
func EmailTopology(exchange, queue, routingKey string) Topology {
	return Topology{
		Exchange:   exchange,
		Kind:       amqp.ExchangeDirect,
		Queue:      queue,
		RoutingKey: routingKey,
	}
}

type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Declare creates the exchange, and the queue with its binding when Queue is set.
func (t Topology) Declare(ch declarer) error {
	kind := t.Kind
	if kind == "" {
		kind = amqp.ExchangeDirect
	}
	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if t.Queue == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", t.Queue, t.Exchange, err)
	}
	return nil
}
