package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrReject marks a delivery that must be dropped instead of requeued.
var ErrReject = errors.New("rabbitmq: reject message")

var errDeliveriesClosed = errors.New("rabbitmq: delivery channel closed")

// Handler processes one delivery. A nil error acks it, an error wrapping
// ErrReject rejects it without requeue and any other error requeues it.
type Handler func(ctx context.Context, d amqp.Delivery) error

type Consumer struct {
	client     *Client
	topology   Topology
	prefetch   int
	tag        string
	log        logrus.FieldLogger
	retryDelay time.Duration
}

func NewConsumer(client *Client, topology Topology, prefetch int, tag string, log logrus.FieldLogger) *Consumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{
		client:     client,
		topology:   topology,
		prefetch:   prefetch,
		tag:        tag,
		log:        log.WithFields(logrus.Fields{"component": "amqp_consumer", "queue": topology.Queue}),
		retryDelay: 2 * time.Second,
	}
}

// Run consumes until ctx is cancelled, re-opening the channel when the
// broker closes it.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		err := c.consume(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("consumer stopped, restarting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, handle Handler) error {
	ch, err := c.client.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.topology.Declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(c.topology.Queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topology.Queue, err)
	}
	c.log.Info("consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			c.dispatch(ctx, d, handle)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, handle Handler) {
	log := c.log.WithField("delivery_tag", d.DeliveryTag)

	err := handle(ctx, d)
	var ackErr error
	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case errors.Is(err, ErrReject):
		log.WithError(err).Warn("rejecting message")
		ackErr = d.Reject(false)
	default:
		log.WithError(err).Error("message processing failed, requeueing")
		ackErr = d.Nack(false, true)
	}
	if ackErr != nil {
		log.WithError(ackErr).Error("acknowledge failed")
	}
}
