package email

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrDispatcherClosed is returned by Schedule once the dispatcher stopped.
var ErrDispatcherClosed = errors.New("email dispatcher closed")

// Dispatcher runs deliveries on a fixed pool of workers.
type Dispatcher struct {
	queue   chan string
	workers int
	log     logrus.FieldLogger

	done     chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(workers, queueSize int, log logrus.FieldLogger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		queue:   make(chan string, queueSize),
		workers: workers,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Schedule blocks until id is queued, ctx is done or the dispatcher stops.
func (d *Dispatcher) Schedule(ctx context.Context, id string) error {
	select {
	case <-d.done:
		return ErrDispatcherClosed
	default:
	}
	select {
	case d.queue <- id:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatcherClosed
	}
}

// Run feeds queued ids to handle until ctx is done. Deliveries already in
// progress finish with a context that is not canceled by ctx.
func (d *Dispatcher) Run(ctx context.Context, handle func(ctx context.Context, id string) error) {
	work := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-d.queue:
					if err := handle(work, id); err != nil {
						d.log.WithFields(logrus.Fields{"email_id": id, "error": err}).Error("email delivery errored")
					}
				}
			}
		}()
	}

	<-ctx.Done()
	d.stopOnce.Do(func() { close(d.done) })
	wg.Wait()
}
