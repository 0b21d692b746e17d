package httpx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/authors/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected CORS header for allowed origin, got %s", got)
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/authors/1", nil)
	req.Header.Set("Origin", "http://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for disallowed origin, got %s", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for OPTIONS request, got %d", w.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeadersMiddleware(true)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS header when enabled")
	}

	w = httptest.NewRecorder()
	SecurityHeadersMiddleware(false)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("Expected no HSTS header when disabled")
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(1024)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books/upload", bytes.NewBuffer(make([]byte, 512))))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for request under limit, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books/upload", bytes.NewBuffer(make([]byte, 2048))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for request over limit, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "req-1" || w.Header().Get(RequestIDHeader) != "req-1" {
		t.Errorf("Expected propagated request id, got %q / %q", seen, w.Header().Get(RequestIDHeader))
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "req-1" {
		t.Errorf("Expected generated request id, got %q", seen)
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := AccessLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/emails", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("Expected an access log entry")
	}
	if entry.Data["status"] != http.StatusTeapot || entry.Data["path"] != "/api/emails" {
		t.Errorf("Unexpected access log fields: %v", entry.Data)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", w.Code)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Error("Expected panic to be logged at error level")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimitMiddleware(1, 1, false)
	t.Cleanup(rl.Close)
	handler := rl.Middleware(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	if first.Code != http.StatusOK {
		t.Errorf("Expected first request to pass, got %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected second request to be limited, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Errorf("Expected Retry-After on limited response, got %q", second.Header().Get("Retry-After"))
	}
}

func TestRateLimitMiddleware_ForwardedFor(t *testing.T) {
	send := func(handler http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("ignored without a trusted proxy", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, 1, false)
		t.Cleanup(rl.Close)
		handler := rl.Middleware(okHandler())

		if code := send(handler, "203.0.113.1"); code != http.StatusOK {
			t.Fatalf("Expected first request to pass, got %d", code)
		}
		if code := send(handler, "203.0.113.2"); code != http.StatusTooManyRequests {
			t.Errorf("Expected rotated X-Forwarded-For to share the remote address bucket, got %d", code)
		}
	})

	t.Run("keys on client behind a trusted proxy", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, 1, true)
		t.Cleanup(rl.Close)
		handler := rl.Middleware(okHandler())

		if code := send(handler, "203.0.113.1, 10.0.0.1"); code != http.StatusOK {
			t.Fatalf("Expected first client to pass, got %d", code)
		}
		if code := send(handler, "203.0.113.2, 10.0.0.1"); code != http.StatusOK {
			t.Errorf("Expected second client to get its own bucket, got %d", code)
		}
		if code := send(handler, "203.0.113.1"); code != http.StatusTooManyRequests {
			t.Errorf("Expected repeated client to be limited, got %d", code)
		}
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mw("outer"), mw("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("Unexpected middleware order: %v", order)
	}
}
