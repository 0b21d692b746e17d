// Command authors serves the author and book catalogue and announces new
// authors to the email service over AMQP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmytrozahor/PS-Task-6/db"
	"github.com/dmytrozahor/PS-Task-6/internal/author"
	"github.com/dmytrozahor/PS-Task-6/internal/book"
	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/notification"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/actuator"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/consul"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/logging"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/metrics"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/postgres"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/rabbitmq"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFiles()
	src := config.New(serviceName, defaults())
	log := logging.ForService(logging.New(src.String("log.level"), nil), serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, src, log); err != nil {
		log.WithError(err).Fatal("authors service failed")
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

	pool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DatabaseTimeout)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.WithField("dsn", postgres.RedactDSN(cfg.DatabaseDSN)).Info("database connection OK")

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, db.Migrations, db.MigrationsDir); err != nil {
			return err
		}
	}

	broker, err := rabbitmq.Dial(ctx, cfg.AMQP.URL, serviceName, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	publisher := rabbitmq.NewPublisher(broker, rabbitmq.EmailTopology(cfg.AMQP.Exchange, cfg.AMQP.Queue, cfg.AMQP.RoutingKey))
	defer publisher.Close()

	mux := routes(pool, notification.NewService(publisher, cfg.AMQP.PublishTimeout), cfg, log)

	health := actuator.NewRegistry(cfg.DatabaseTimeout)
	health.Register("postgres", postgres.Check(pool))
	health.Register("amqp", broker.Check)
	if agent != nil {
		health.Register("consul", consul.Check(agent.Client))
	}
	actuator.Mount(mux, health, actuator.Info{Name: serviceName, Version: cfg.Version})

	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg, "authors")
	if err != nil {
		return err
	}
	mux.Handle("GET "+metrics.Path, metrics.Handler(reg))

	stack := server.NewStack(mux, cfg.HTTP, log, httpMetrics)
	defer stack.Close()

	return server.ListenAndRun(ctx, server.New(cfg.HTTP, stack.Handler), cfg.ShutdownTimeout, log)
}

func routes(pool *pgxpool.Pool, notifier author.Notifier, cfg Config, log logrus.FieldLogger) *http.ServeMux {
	authorRepo := author.NewPostgresRepo(pool, cfg.DatabaseTimeout)
	bookRepo := book.NewPostgresRepo(pool, cfg.DatabaseTimeout)

	authorService := author.NewService(authorRepo, notifier, log)
	bookService := book.NewService(bookRepo, authorRepo, log)

	mux := http.NewServeMux()
	author.NewHTTPHandler(authorService).Register(mux)
	book.NewHTTPHandler(bookService).Register(mux)
	return mux
}
