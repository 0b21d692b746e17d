package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmytrozahor/PS-Task-6/internal/platform/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type processor interface {
	Process(ctx context.Context, req Request) (string, error)
}

// Listener turns broker deliveries into processed email requests.
type Listener struct {
	service processor
	log     logrus.FieldLogger
}

func NewListener(service processor, log logrus.FieldLogger) *Listener {
	return &Listener{service: service, log: log}
}

// Handle is a rabbitmq.Handler. Undecodable requests are rejected so they
// are not redelivered.
func (l *Listener) Handle(ctx context.Context, d amqp.Delivery) error {
	var req Request
	if err := json.Unmarshal(d.Body, &req); err != nil {
		return fmt.Errorf("%w: decode email request: %v", rabbitmq.ErrReject, err)
	}
	if len(req.Recipients) == 0 {
		return fmt.Errorf("%w: email request without recipients", rabbitmq.ErrReject)
	}

	id, err := l.service.Process(ctx, req)
	if err != nil {
		return err
	}
	l.log.WithFields(logrus.Fields{"email_id": id, "message_id": d.MessageId}).Debug("email request accepted")
	return nil
}
