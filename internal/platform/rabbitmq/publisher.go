package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends persistent JSON messages to one exchange and routing key.
// The channel is opened lazily and replaced after a failed publish.
type Publisher struct {
	topology Topology
	open     func() (publishChannel, error)

	mu sync.Mutex
	ch publishChannel
}

func NewPublisher(client *Client, topology Topology) *Publisher {
	return &Publisher{
		topology: topology,
		open: func() (publishChannel, error) {
			ch, err := client.Channel()
			if err != nil {
				return nil, err
			}
			if err := topology.Declare(ch); err != nil {
				_ = ch.Close()
				return nil, err
			}
			return ch, nil
		},
	}
}

func (p *Publisher) PublishJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, err := p.open()
		if err != nil {
			return fmt.Errorf("open publish channel: %w", err)
		}
		p.ch = ch
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.topology.Exchange, p.topology.RoutingKey, false, false, msg); err != nil {
		_ = p.ch.Close()
		p.ch = nil
		return fmt.Errorf("publish to %s: %w", p.topology.Exchange, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
