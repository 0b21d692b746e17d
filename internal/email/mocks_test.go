package email

import (
	"context"
	"sync"

	"github.com/dmytrozahor/PS-Task-6/internal/paging"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, msg *Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Message), args.Error(1)
}

func (m *mockRepo) FindAll(ctx context.Context, page paging.Request) ([]Message, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Message), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) FindByStatus(ctx context.Context, status Status, page paging.Request) ([]Message, int64, error) {
	args := m.Called(ctx, status, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Message), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) FindAllByStatus(ctx context.Context, status Status) ([]Message, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type countingObserver struct {
	mu                          sync.Mutex
	received, delivered, failed int
}

func (o *countingObserver) Received() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received++
}

func (o *countingObserver) Delivered() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered++
}

func (o *countingObserver) DeliveryFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}
