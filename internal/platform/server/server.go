// Package server assembles the HTTP middleware stack shared by the services
// and runs the listener until its context is canceled.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/metrics"
	"github.com/sirupsen/logrus"
)

// Stack is the wrapped handler plus whatever must be released on shutdown.
type Stack struct {
	Handler http.Handler
	limiter *httpx.RateLimitMiddleware
}

// Close stops the rate limiter's background cleanup.
func (s *Stack) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

// NewStack wraps h with the request id, access log, recovery, metrics,
// security headers, CORS, body size and rate limit middleware. A nil
// httpMetrics skips instrumentation and a non-positive rate disables limiting.
func NewStack(h http.Handler, cfg config.HTTP, log logrus.FieldLogger, httpMetrics *metrics.HTTPMetrics) *Stack {
	s := &Stack{}

	mws := []httpx.Middleware{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.RecoveryMiddleware(log),
	}
	if httpMetrics != nil {
		mws = append(mws, httpMetrics.Middleware)
	}
	mws = append(mws,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
	)
	if cfg.MaxBodyBytes > 0 {
		mws = append(mws, httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)
		mws = append(mws, s.limiter.Middleware)
	}

	s.Handler = httpx.Chain(h, mws...)
	return s
}

// New returns an http.Server for cfg.
func New(cfg config.HTTP, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves on ln until ctx is done, then drains in-flight requests within
// shutdownTimeout.
func Run(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, log logrus.FieldLogger) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	log.WithField("addr", ln.Addr().String()).Info("http server started")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining in-flight requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("http server stopped")
	return nil
}

// ListenAndRun binds srv.Addr and calls Run.
func ListenAndRun(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Run(ctx, srv, ln, shutdownTimeout, log)
}
