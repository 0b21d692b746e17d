package email

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRetryInterval is the pause between two retry runs.
const DefaultRetryInterval = 5 * time.Minute

type failedRetrier interface {
	RetryFailed(ctx context.Context) (int, error)
}

// RetryScheduler retries failed messages on start and then with a fixed
// delay between the end of one run and the start of the next.
type RetryScheduler struct {
	service  failedRetrier
	interval time.Duration
	log      logrus.FieldLogger
}

func NewRetryScheduler(service failedRetrier, interval time.Duration, log logrus.FieldLogger) *RetryScheduler {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	return &RetryScheduler{service: service, interval: interval, log: log}
}

func (r *RetryScheduler) Run(ctx context.Context) {
	r.log.WithField("interval", r.interval.String()).Info("email retry scheduler started")
	for {
		r.RunOnce(ctx)

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *RetryScheduler) RunOnce(ctx context.Context) {
	n, err := r.service.RetryFailed(ctx)
	if err != nil && ctx.Err() == nil {
		r.log.WithError(err).Error("retrying failed emails")
		return
	}
	if n > 0 {
		r.log.WithField("retried", n).Info("retried failed emails")
	}
}
