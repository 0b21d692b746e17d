// Command gateway exposes the caller profile and proxies the API to the
// authors and email services.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/gateway"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/actuator"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/consul"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/logging"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/metrics"
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
		log.WithError(err).Fatal("gateway failed")
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

	resolver, err := newResolver(cfg, agent)
	if err != nil {
		return err
	}

	mux := routes(cfg, resolver, log)

	health := actuator.NewRegistry(2 * time.Second)
	if agent != nil {
		health.Register("consul", consul.Check(agent.Client))
	}
	actuator.Mount(mux, health, actuator.Info{Name: serviceName, Version: cfg.Version})

	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg, "gateway")
	if err != nil {
		return err
	}
	mux.Handle("GET "+metrics.Path, metrics.Handler(reg))

	stack := server.NewStack(mux, cfg.HTTP, log, httpMetrics)
	defer stack.Close()

	return server.ListenAndRun(ctx, server.New(cfg.HTTP, stack.Handler), cfg.ShutdownTimeout, log)
}

func newResolver(cfg Config, agent *consul.Agent) (gateway.Resolver, error) {
	if agent != nil {
		return consul.NewResolver(agent.Client), nil
	}
	return gateway.NewStaticResolver(cfg.staticTargets())
}

func routes(cfg Config, resolver gateway.Resolver, log logrus.FieldLogger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profile", gateway.ProfileHandler)
	gateway.NewProxy(resolver, gateway.DefaultRoutes(cfg.AuthorsService, cfg.EmailService), log).Register(mux)
	return mux
}
