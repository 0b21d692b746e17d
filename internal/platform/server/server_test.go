package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/metrics"
	"github.com/dmytrozahor/PS-Task-6/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStack_AppliesMiddleware(t *testing.T) {
	log, _ := testutil.NullLogger()
	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg, "test")
	require.NoError(t, err)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(httpx.RequestIDFrom(r)))
	})
	stack := NewStack(h, config.HTTP{MaxBodyBytes: 8, RateLimitRPS: 100, RateLimitBurst: 10}, log, httpMetrics)
	t.Cleanup(stack.Close)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(httpx.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(httpx.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	big := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789"))
	w = httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewStack_RecoversPanics(t *testing.T) {
	log, hook := testutil.NullLogger()
	stack := NewStack(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), config.HTTP{}, log, nil)
	t.Cleanup(stack.Close)

	w := httptest.NewRecorder()
	stack.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestNewStack_LabelsMetricsWithRoutePattern(t *testing.T) {
	log, _ := testutil.NullLogger()
	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg, "test")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/authors/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	stack := NewStack(mux, config.HTTP{MaxBodyBytes: 1024, RateLimitRPS: 100, RateLimitBurst: 10}, log, httpMetrics)
	t.Cleanup(stack.Close)

	stack.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/authors/7", nil))

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, metrics.Path, nil))
	assert.Contains(t, w.Body.String(), `test_http_requests_total{code="204",method="GET",route="GET /api/authors/{id}"} 1`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	log, _ := testutil.NullLogger()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(config.HTTP{ReadTimeout: time.Second, WriteTimeout: time.Second}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, ln, time.Second, log) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
