// Package actuator serves the operational endpoints: aggregated health,
// liveness, readiness and build info.
package actuator

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Check reports a component failure as a non-nil error.
type Check func(ctx context.Context) error

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

type Component struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Health struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components,omitempty"`
}

// Registry runs the named checks concurrently under one timeout.
type Registry struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{checks: make(map[string]Check), timeout: timeout}
}

func (reg *Registry) Register(name string, check Check) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.checks[name] = check
}

func (reg *Registry) Check(ctx context.Context) Health {
	reg.mu.RLock()
	names := make([]string, 0, len(reg.checks))
	for name := range reg.checks {
		names = append(names, name)
	}
	reg.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, reg.timeout)
	defer cancel()

	results := make([]Component, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		reg.mu.RLock()
		check := reg.checks[name]
		reg.mu.RUnlock()

		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = Component{Status: StatusDown, Error: err.Error()}
				return
			}
			results[i] = Component{Status: StatusUp}
		}(i, check)
	}
	wg.Wait()

	h := Health{Status: StatusUp, Components: make(map[string]Component, len(names))}
	for i, name := range names {
		h.Components[name] = results[i]
		if results[i].Status == StatusDown {
			h.Status = StatusDown
		}
	}
	return h
}

// HealthHandler answers 200 when every component is up and 503 otherwise.
func (reg *Registry) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := reg.Check(r.Context())
		status := http.StatusOK
		if h.Status != StatusUp {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}

// Info describes the running build.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Mount registers the actuator routes on mux.
func Mount(mux *http.ServeMux, reg *Registry, info Info) {
	mux.HandleFunc("GET /actuator/health", reg.HealthHandler())
	mux.HandleFunc("GET /readyz", reg.HealthHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /actuator/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]Info{"app": info})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
