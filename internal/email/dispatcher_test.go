package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsScheduledDeliveries(t *testing.T) {
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(3, 10, logger)

	var (
		mu   sync.Mutex
		seen []string
	)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx, func(_ context.Context, id string) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, id)
			return nil
		})
		close(stopped)
	}()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Schedule(context.Background(), id))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.ErrorIs(t, d.Schedule(context.Background(), "late"), ErrDispatcherClosed)
}

func TestDispatcher_LogsHandlerErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(1, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, func(context.Context, string) error { return errors.New("boom") })

	require.NoError(t, d.Schedule(context.Background(), "x"))

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "email delivery errored" && e.Data["email_id"] == "x" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_ScheduleHonoursContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(1, 0, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, d.Schedule(ctx, "x"), context.DeadlineExceeded)
}
