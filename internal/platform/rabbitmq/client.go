// Package rabbitmq wraps amqp091 with reconnection, topology declaration,
// JSON publishing and an acknowledging consumer loop.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned while the connection is down.
var ErrNotConnected = errors.New("rabbitmq: not connected")

const (
	dialAttempts = 5
	maxBackoff   = 30 * time.Second
)

// Client owns one AMQP connection and re-dials it after the broker drops it.
type Client struct {
	url        string
	name       string
	log        logrus.FieldLogger
	retryDelay time.Duration

	mu   sync.RWMutex
	conn *amqp.Connection

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial connects to url, retrying with exponential backoff (1s, 2s, 4s, ...).
func Dial(ctx context.Context, url, name string, log logrus.FieldLogger) (*Client, error) {
	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:        url,
		name:       name,
		log:        log.WithField("component", "amqp"),
		retryDelay: time.Second,
		ctx:        cctx,
		cancel:     cancel,
	}

	conn, err := c.connect(ctx, dialAttempts)
	if err != nil {
		cancel()
		return nil, err
	}
	c.conn = conn

	c.wg.Add(1)
	go c.watch(conn)
	return c, nil
}

func (c *Client) connect(ctx context.Context, attempts int) (*amqp.Connection, error) {
	for attempt := 0; ; attempt++ {
		conn, err := amqp.DialConfig(c.url, amqp.Config{
			Heartbeat:  10 * time.Second,
			Properties: amqp.Table{"connection_name": c.name},
		})
		if err == nil {
			return conn, nil
		}
		if attempts > 0 && attempt+1 >= attempts {
			return nil, fmt.Errorf("dial amqp after %d attempts: %w", attempt+1, err)
		}

		wait := c.retryDelay * time.Duration(1<<min(attempt, 5))
		if wait > maxBackoff {
			wait = maxBackoff
		}
		c.log.WithError(err).WithField("retry_in", wait.String()).Warn("amqp dial failed")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) watch(conn *amqp.Connection) {
	defer c.wg.Done()
	for {
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-c.ctx.Done():
			return
		case amqpErr := <-closed:
			if c.ctx.Err() != nil {
				return
			}
			c.log.WithField("error", amqpErr).Warn("amqp connection lost, reconnecting")
		}

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		next, err := c.connect(c.ctx, 0)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.conn = next
		c.mu.Unlock()
		conn = next
		c.log.Info("amqp connection restored")
	}
}

// Channel opens a new channel on the current connection.
func (c *Client) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return nil, ErrNotConnected
	}
	return conn.Channel()
}

// Check reports whether the connection is currently open.
func (c *Client) Check(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || c.conn.IsClosed() {
		return ErrNotConnected
	}
	return nil
}

// Close stops reconnecting and closes the connection.
func (c *Client) Close() error {
	c.cancel()
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil && !conn.IsClosed() {
		err = conn.Close()
	}
	c.wg.Wait()
	return err
}
