package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	repo      *mockRepo
	sender    *mockSender
	scheduler *mockScheduler
	observer  *countingObserver
	hook      *test.Hook
}

func newFixture(maxAttempts int) *fixture {
	logger, hook := test.NewNullLogger()
	f := &fixture{
		repo:      new(mockRepo),
		sender:    new(mockSender),
		scheduler: new(mockScheduler),
		observer:  &countingObserver{},
		hook:      hook,
	}
	f.svc = NewService(f.repo, f.sender, f.scheduler, f.observer, logger, maxAttempts)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func withStatus(status Status) interface{} {
	return mock.MatchedBy(func(m *Message) bool { return m.Status == status })
}

var smtpErr = errors.New("connection refused")

func TestService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pending and schedules", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
			return m.Status == StatusPending && m.RetryAttempt == 0 && m.CreatedAt.Equal(fixedNow) &&
				m.Subject == "Hi" && m.Content == "Body" && len(m.Recipients) == 1
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*Message).ID = "msg-1"
		}).Return(nil).Once()
		f.scheduler.On("Schedule", ctx, "msg-1").Return(nil).Once()

		id, err := f.svc.Process(ctx, Request{Subject: "Hi", Content: "Body", Recipients: []string{"a@example.com"}})

		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
		assert.Equal(t, 1, f.observer.received)
		f.repo.AssertExpectations(t)
		f.scheduler.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("Save", ctx, mock.Anything).Return(errors.New("cluster down")).Once()

		_, err := f.svc.Process(ctx, Request{Recipients: []string{"a@example.com"}})

		assert.Error(t, err)
		f.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
	})

	t.Run("scheduling failure marks failed", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("Save", ctx, withStatus(StatusPending)).Run(func(args mock.Arguments) {
			args.Get(1).(*Message).ID = "msg-2"
		}).Return(nil).Once()
		f.scheduler.On("Schedule", ctx, "msg-2").Return(ErrDispatcherClosed).Once()
		f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
			return m.Status == StatusFailed && m.RetryAttempt == 0 && m.ErrorMessage != ""
		})).Return(nil).Once()

		id, err := f.svc.Process(ctx, Request{Recipients: []string{"a@example.com"}})

		require.NoError(t, err)
		assert.Equal(t, "msg-2", id)
		f.repo.AssertExpectations(t)
	})
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	pending := Message{ID: "m", Recipients: []string{"a@example.com", "b@example.com"}, Subject: "S", Content: "C", Status: StatusPending}

	t.Run("success marks sent", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindByID", ctx, "m").Return(pending, nil)
		f.sender.On("Send", ctx, []string{"a@example.com", "b@example.com"}, "S", "C").Return(nil)
		f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
			return m.Status == StatusSent && m.LastAttemptAt != nil && m.LastAttemptAt.Equal(fixedNow)
		})).Return(nil).Once()

		require.NoError(t, f.svc.Send(ctx, "m"))
		assert.Equal(t, 1, f.observer.delivered)
		f.repo.AssertExpectations(t)
	})

	t.Run("failure keeps attempt count", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindByID", ctx, "m").Return(pending, nil)
		f.sender.On("Send", ctx, mock.Anything, "S", "C").Return(smtpErr)
		f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
			return m.Status == StatusFailed && m.RetryAttempt == 0 &&
				m.ErrorMessage == "*errors.errorString: connection refused"
		})).Return(nil).Once()

		require.NoError(t, f.svc.Send(ctx, "m"))
		assert.Equal(t, 1, f.observer.failed)
		f.repo.AssertExpectations(t)
	})

	t.Run("already sent is skipped", func(t *testing.T) {
		f := newFixture(0)
		sent := pending
		sent.Status = StatusSent
		f.repo.On("FindByID", ctx, "m").Return(sent, nil)

		require.NoError(t, f.svc.Send(ctx, "m"))
		f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Equal(t, "Email already sent, skipping", f.hook.LastEntry().Message)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindByID", ctx, "nope").Return(Message{}, ErrNotFound)

		err := f.svc.Send(ctx, "nope")

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "email message not found: nope", err.Error())
	})
}

func TestService_Retry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)
	f.repo.On("FindByID", ctx, "m").Return(Message{ID: "m", Status: StatusFailed, RetryAttempt: 2}, nil)
	f.sender.On("Send", ctx, mock.Anything, mock.Anything, mock.Anything).Return(smtpErr)
	f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
		return m.Status == StatusFailed && m.RetryAttempt == 3
	})).Return(nil).Once()

	require.NoError(t, f.svc.Retry(ctx, "m"))
	f.repo.AssertExpectations(t)
}

func TestService_RetryFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("retries every failed message", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindAllByStatus", ctx, StatusFailed).Return([]Message{
			{ID: "a", Status: StatusFailed, Subject: "A"},
			{ID: "b", Status: StatusFailed, Subject: "B", RetryAttempt: 7},
		}, nil)
		f.sender.On("Send", ctx, mock.Anything, "A", mock.Anything).Return(nil)
		f.sender.On("Send", ctx, mock.Anything, "B", mock.Anything).Return(smtpErr)
		f.repo.On("Save", ctx, withStatus(StatusSent)).Return(nil).Once()
		f.repo.On("Save", ctx, mock.MatchedBy(func(m *Message) bool {
			return m.ID == "b" && m.Status == StatusFailed && m.RetryAttempt == 8
		})).Return(nil).Once()

		n, err := f.svc.RetryFailed(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		f.repo.AssertExpectations(t)
	})

	t.Run("attempt cap", func(t *testing.T) {
		f := newFixture(3)
		f.repo.On("FindAllByStatus", ctx, StatusFailed).Return([]Message{
			{ID: "a", Status: StatusFailed, RetryAttempt: 3},
		}, nil)

		n, err := f.svc.RetryFailed(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, n)
		f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage error", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindAllByStatus", ctx, StatusFailed).Return(nil, errors.New("boom"))

		_, err := f.svc.RetryFailed(ctx)

		assert.Error(t, err)
	})
}

func TestService_ResumePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)
	f.repo.On("FindAllByStatus", ctx, StatusPending).Return([]Message{{ID: "a"}, {ID: "b"}}, nil)
	f.scheduler.On("Schedule", ctx, "a").Return(nil)
	f.scheduler.On("Schedule", ctx, "b").Return(nil)

	n, err := f.svc.ResumePending(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	f.scheduler.AssertExpectations(t)
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	sentAt := fixedNow.Add(time.Minute)

	t.Run("find all", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindAll", ctx, paging.New(1, 2)).Return([]Message{
			{ID: "a", Status: StatusSent, LastAttemptAt: &sentAt},
		}, int64(3), nil)

		page, err := f.svc.FindAll(ctx, paging.New(1, 2))

		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 2, page.Size)
		require.Len(t, page.Content, 1)
		assert.Nil(t, page.Content[0].ErrorMessage)
		assert.Equal(t, []string{}, page.Content[0].Recipients)
	})

	t.Run("find by status", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindByStatus", ctx, StatusFailed, paging.New(0, 20)).Return([]Message{
			{ID: "a", Status: StatusFailed, ErrorMessage: "*mail.SendError: boom"},
		}, int64(1), nil)

		page, err := f.svc.FindByStatus(ctx, StatusFailed, paging.New(0, 20))

		require.NoError(t, err)
		require.NotNil(t, page.Content[0].ErrorMessage)
		assert.Equal(t, "*mail.SendError: boom", *page.Content[0].ErrorMessage)
	})

	t.Run("invalid page", func(t *testing.T) {
		f := newFixture(0)

		_, err := f.svc.FindAll(ctx, paging.New(-1, 20))

		assert.ErrorIs(t, err, paging.ErrInvalid)
	})

	t.Run("find by id", func(t *testing.T) {
		f := newFixture(0)
		f.repo.On("FindByID", ctx, "x").Return(Message{}, ErrNotFound)

		_, err := f.svc.FindByID(ctx, "x")

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "Email not found: x", err.Error())
	})
}
