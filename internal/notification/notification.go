// Package notification turns author events into email requests for the email service.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/author"
)

const authorCreatedSubject = "New Author Created"

// DefaultPublishTimeout applies when NewService is given a non-positive timeout.
const DefaultPublishTimeout = 5 * time.Second

// EmailRequest is the message the email service consumes.
type EmailRequest struct {
	Subject    string   `json:"subject"`
	Content    string   `json:"content"`
	Recipients []string `json:"recipients"`
}

// Publisher delivers a JSON-encodable message to the broker.
type Publisher interface {
	PublishJSON(ctx context.Context, v any) error
}

type Service struct {
	publisher Publisher
	timeout   time.Duration
}

// NewService publishes through publisher, giving up on a publish after timeout
// so a stalled broker cannot hold the caller's request open.
func NewService(publisher Publisher, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Service{publisher: publisher, timeout: timeout}
}

// AuthorCreated asks the email service to notify a newly created author.
func (s *Service) AuthorCreated(ctx context.Context, a author.Author) error {
	req := EmailRequest{
		Subject:    authorCreatedSubject,
		Content:    "A new author has been successfully created: " + a.CanonicalName,
		Recipients: []string{a.Email},
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.PublishJSON(ctx, req); err != nil {
		return fmt.Errorf("publish author created email: %w", err)
	}
	return nil
}

var _ author.Notifier = (*Service)(nil)
