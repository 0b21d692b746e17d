// Package metrics exposes Prometheus instrumentation for the HTTP services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is where the scrape endpoint is mounted.
const Path = "/actuator/prometheus"

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// HTTPMetrics counts requests and observes their latency per route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, namespace string) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests per route.",
		}, []string{"code", "method", "route"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency per route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size per route.",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
		}, []string{"method", "route"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.size} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Middleware instruments next. The route label is read from r.Pattern, which
// the ServeMux sets once it has run, so any middleware may sit between this
// one and the mux as long as it passes the same *http.Request through rather
// than a copy from r.WithContext.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == Path {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(strconv.Itoa(rec.status), r.Method, route).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.size.WithLabelValues(r.Method, route).Observe(float64(rec.bytes))
	})
}

// EmailMetrics counts email delivery outcomes.
type EmailMetrics struct {
	deliveries *prometheus.CounterVec
	received   prometheus.Counter
}

func NewEmailMetrics(reg prometheus.Registerer, namespace string) (*EmailMetrics, error) {
	m := &EmailMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "deliveries_total",
			Help:      "SMTP delivery attempts by outcome.",
		}, []string{"outcome"}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "requests_received_total",
			Help:      "Email requests accepted from the broker.",
		}),
	}
	for _, c := range []prometheus.Collector{m.deliveries, m.received} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *EmailMetrics) Received()       { m.received.Inc() }
func (m *EmailMetrics) Delivered()      { m.deliveries.WithLabelValues("sent").Inc() }
func (m *EmailMetrics) DeliveryFailed() { m.deliveries.WithLabelValues("failed").Inc() }
