package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/sirupsen/logrus"
)

type Service struct {
	repo        Repository
	sender      Sender
	scheduler   Scheduler
	observer    Observer
	log         logrus.FieldLogger
	now         func() time.Time
	maxAttempts int
}

type noopObserver struct{}

func (noopObserver) Received()       {}
func (noopObserver) Delivered()      {}
func (noopObserver) DeliveryFailed() {}

// NewService wires the email lifecycle. observer may be nil. maxAttempts
// caps how often RetryFailed retries a message; zero means no cap.
func NewService(repo Repository, sender Sender, scheduler Scheduler, observer Observer, log logrus.FieldLogger, maxAttempts int) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		repo:        repo,
		sender:      sender,
		scheduler:   scheduler,
		observer:    observer,
		log:         log,
		now:         time.Now,
		maxAttempts: maxAttempts,
	}
}

// Process stores req as a pending message and schedules its delivery.
func (s *Service) Process(ctx context.Context, req Request) (string, error) {
	m := Message{
		Recipients:   req.Recipients,
		Subject:      req.Subject,
		Content:      req.Content,
		Status:       StatusPending,
		RetryAttempt: 0,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Save(ctx, &m); err != nil {
		return "", fmt.Errorf("save email message: %w", err)
	}
	s.observer.Received()

	if err := s.scheduler.Schedule(ctx, m.ID); err != nil {
		// Stored as failed so the retry job picks it up.
		s.log.WithFields(logrus.Fields{"email_id": m.ID, "error": err}).Warn("scheduling email delivery failed")
		if ferr := s.fail(ctx, &m, err, false); ferr != nil {
			return m.ID, ferr
		}
	}
	return m.ID, nil
}

func (s *Service) load(ctx context.Context, id string) (Message, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Message{}, apperr.New(ErrNotFound, "email message not found: %s", id)
		}
		return Message{}, err
	}
	return m, nil
}

// Send delivers the stored message id unless it was already sent. A delivery
// failure is recorded on the message, not returned.
func (s *Service) Send(ctx context.Context, id string) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.deliver(ctx, &m, false)
}

// Retry is Send for a message that failed before; failures count as a retry attempt.
func (s *Service) Retry(ctx context.Context, id string) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.deliver(ctx, &m, true)
}

// RetryFailed retries every failed message below the attempt cap and
// returns how many were retried.
func (s *Service) RetryFailed(ctx context.Context) (int, error) {
	failed, err := s.repo.FindAllByStatus(ctx, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("find failed emails: %w", err)
	}
	retried := 0
	for i := range failed {
		if err := ctx.Err(); err != nil {
			return retried, err
		}
		m := &failed[i]
		if s.maxAttempts > 0 && m.RetryAttempt >= s.maxAttempts {
			continue
		}
		if err := s.deliver(ctx, m, true); err != nil {
			s.log.WithFields(logrus.Fields{"email_id": m.ID, "error": err}).Error("email retry failed")
			continue
		}
		retried++
	}
	return retried, nil
}

// ResumePending schedules the messages that were stored but never attempted,
// e.g. because the process stopped before a worker picked them up.
func (s *Service) ResumePending(ctx context.Context) (int, error) {
	pending, err := s.repo.FindAllByStatus(ctx, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("find pending emails: %w", err)
	}
	for i, m := range pending {
		if err := s.scheduler.Schedule(ctx, m.ID); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

func (s *Service) deliver(ctx context.Context, m *Message, retry bool) error {
	log := s.log.WithField("email_id", m.ID)
	if m.Status == StatusSent {
		log.Info("Email already sent, skipping")
		return nil
	}

	if err := s.sender.Send(ctx, m.Recipients, m.Subject, m.Content); err != nil {
		log.WithFields(logrus.Fields{"error": err, "retry": retry}).Warn("email delivery failed")
		return s.fail(ctx, m, err, retry)
	}

	now := s.now().UTC()
	m.Status = StatusSent
	m.LastAttemptAt = &now
	if err := s.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	s.observer.Delivered()
	log.Info("email sent")
	return nil
}

func (s *Service) fail(ctx context.Context, m *Message, cause error, retry bool) error {
	now := s.now().UTC()
	m.Status = StatusFailed
	m.ErrorMessage = errorMessage(cause)
	m.LastAttemptAt = &now
	if retry {
		m.RetryAttempt++
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("mark email failed: %w", err)
	}
	s.observer.DeliveryFailed()
	return nil
}

// errorMessage renders err as "<type>: <text>".
func errorMessage(err error) string {
	return fmt.Sprintf("%T: %v", err, err)
}

func (s *Service) FindAll(ctx context.Context, page paging.Request) (Page, error) {
	if err := page.Validate(); err != nil {
		return Page{}, err
	}
	messages, total, err := s.repo.FindAll(ctx, page)
	if err != nil {
		return Page{}, err
	}
	return newPage(messages, total, page), nil
}

func (s *Service) FindByStatus(ctx context.Context, status Status, page paging.Request) (Page, error) {
	if err := page.Validate(); err != nil {
		return Page{}, err
	}
	messages, total, err := s.repo.FindByStatus(ctx, status, page)
	if err != nil {
		return Page{}, err
	}
	return newPage(messages, total, page), nil
}

func (s *Service) FindByID(ctx context.Context, id string) (StatusView, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StatusView{}, apperr.New(ErrNotFound, "Email not found: %s", id)
		}
		return StatusView{}, err
	}
	return m.view(), nil
}
