// Command email consumes email requests from AMQP, keeps them in
// Elasticsearch and delivers them over SMTP with periodic retries.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/email"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/actuator"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/consul"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/elastic"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/logging"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/mail"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/metrics"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/rabbitmq"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/server"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFiles()
	src := config.New(serviceName, defaults())
	log := logging.ForService(logging.New(src.String("log.level"), nil), serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, src, log); err != nil {
		log.WithError(err).Fatal("email service failed")
	}
}

func run(ctx context.Context, src *config.Source, log *logrus.Entry) error {
	agent, err := consul.Join(ctx, src, "/actuator/health", log)
	if err != nil {
		return err
	}
	defer agent.Leave()

	cfg := loadConfig(src)
	logging.SetLevel(log.Logger, cfg.LogLevel)

	es, err := elastic.NewClient(cfg.Elastic)
	if err != nil {
		return err
	}
	if err := elastic.EnsureIndex(ctx, es, cfg.Index, email.IndexMapping); err != nil {
		return err
	}

	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		return err
	}

	broker, err := rabbitmq.Dial(ctx, cfg.AMQP.URL, serviceName, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg, "email")
	if err != nil {
		return err
	}
	emailMetrics, err := metrics.NewEmailMetrics(reg, "email")
	if err != nil {
		return err
	}

	dispatcher := email.NewDispatcher(cfg.Workers, cfg.QueueSize, log)
	service := email.NewService(email.NewElasticRepo(es, cfg.Index), sender, dispatcher, emailMetrics, log, cfg.RetryMaxAttempts)
	consumer := rabbitmq.NewConsumer(broker, rabbitmq.EmailTopology(cfg.AMQP.Exchange, cfg.AMQP.Queue, cfg.AMQP.RoutingKey), cfg.AMQP.Prefetch, serviceName, log)

	// a listener failure must stop the workers as well
	workCtx, stopWork := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		stopWork()
		wg.Wait()
	}()

	wg.Add(3)
	go func() {
		defer wg.Done()
		dispatcher.Run(workCtx, service.Send)
	}()
	go func() {
		defer wg.Done()
		resumePending(workCtx, service, log)
		email.NewRetryScheduler(service, cfg.RetryInterval, log).Run(workCtx)
	}()
	go func() {
		defer wg.Done()
		if err := consumer.Run(workCtx, email.NewListener(service, log).Handle); err != nil {
			log.WithError(err).Error("email consumer stopped")
		}
	}()

	mux := http.NewServeMux()
	email.NewHTTPHandler(service).Register(mux)

	health := actuator.NewRegistry(2 * time.Second)
	health.Register("elasticsearch", elastic.Check(es))
	health.Register("amqp", broker.Check)
	if agent != nil {
		health.Register("consul", consul.Check(agent.Client))
	}
	actuator.Mount(mux, health, actuator.Info{Name: serviceName, Version: cfg.Version})
	mux.Handle("GET "+metrics.Path, metrics.Handler(reg))

	stack := server.NewStack(mux, cfg.HTTP, log, httpMetrics)
	defer stack.Close()

	return server.ListenAndRun(ctx, server.New(cfg.HTTP, stack.Handler), cfg.ShutdownTimeout, log)
}

func resumePending(ctx context.Context, service *email.Service, log logrus.FieldLogger) {
	n, err := service.ResumePending(ctx)
	if err != nil && ctx.Err() == nil {
		log.WithError(err).Error("resuming pending emails")
		return
	}
	if n > 0 {
		log.WithField("count", n).Info("resumed pending emails")
	}
}
