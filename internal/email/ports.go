package email

import (
	"context"

	"github.com/dmytrozahor/PS-Task-6/internal/paging"
)

// Repository stores messages. Save assigns an id to a message without one.
type Repository interface {
	Save(ctx context.Context, m *Message) error
	FindByID(ctx context.Context, id string) (Message, error)
	FindAll(ctx context.Context, page paging.Request) ([]Message, int64, error)
	FindByStatus(ctx context.Context, status Status, page paging.Request) ([]Message, int64, error)
	FindAllByStatus(ctx context.Context, status Status) ([]Message, error)
}

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Scheduler queues a stored message for asynchronous delivery.
type Scheduler interface {
	Schedule(ctx context.Context, id string) error
}

// Observer is told about every received message and delivery attempt.
type Observer interface {
	Received()
	Delivered()
	DeliveryFailed()
}
