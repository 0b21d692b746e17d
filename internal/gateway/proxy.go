package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/consul"
	"github.com/sirupsen/logrus"
)

// Resolver returns the base URL of one instance of service.
type Resolver interface {
	Resolve(ctx context.Context, service string) (*url.URL, error)
}

// StaticResolver maps service names to fixed URLs.
type StaticResolver map[string]*url.URL

func NewStaticResolver(targets map[string]string) (StaticResolver, error) {
	out := make(StaticResolver, len(targets))
	for name, raw := range targets {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", name, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("target %s: %q is not an absolute URL", name, raw)
		}
		out[name] = u
	}
	return out, nil
}

func (s StaticResolver) Resolve(_ context.Context, service string) (*url.URL, error) {
	u, ok := s[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", consul.ErrNoInstances, service)
	}
	return u, nil
}

// Route sends every path under Prefix to Service.
type Route struct {
	Prefix  string
	Service string
}

// DefaultRoutes forwards authors and books to authors, emails to email.
func DefaultRoutes(authors, email string) []Route {
	return []Route{
		{Prefix: "/api/authors", Service: authors},
		{Prefix: "/api/books", Service: authors},
		{Prefix: "/api/emails", Service: email},
	}
}

type targetKey struct{}

type Proxy struct {
	resolver Resolver
	routes   []Route
	log      logrus.FieldLogger
	proxy    *httputil.ReverseProxy
}

func NewProxy(resolver Resolver, routes []Route, log logrus.FieldLogger) *Proxy {
	p := &Proxy{resolver: resolver, routes: routes, log: log}
	p.proxy = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		ErrorHandler: p.upstreamError,
	}
	return p
}

// Register mounts every route prefix on mux.
func (p *Proxy) Register(mux *http.ServeMux) {
	for _, route := range p.routes {
		mux.Handle(route.Prefix, p)
		mux.Handle(route.Prefix+"/", p)
	}
}

func (p *Proxy) route(path string) (Route, bool) {
	var best Route
	found := false
	for _, route := range p.routes {
		if path != route.Prefix && !strings.HasPrefix(path, route.Prefix+"/") {
			continue
		}
		if !found || len(route.Prefix) > len(best.Prefix) {
			best, found = route, true
		}
	}
	return best, found
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := p.route(r.URL.Path)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "No route for "+r.URL.Path, nil)
		return
	}
	target, err := p.resolver.Resolve(r.Context(), route.Service)
	if err != nil {
		p.log.WithFields(logrus.Fields{"service": route.Service, "error": err}).Warn("resolving upstream failed")
		if errors.Is(err, consul.ErrNoInstances) {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "Service "+route.Service+" is unavailable", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusBadGateway, "Service "+route.Service+" could not be resolved", nil)
		return
	}
	ctx := context.WithValue(r.Context(), targetKey{}, target)
	p.proxy.ServeHTTP(w, r.WithContext(ctx))
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	target := pr.In.Context().Value(targetKey{}).(*url.URL)
	pr.SetURL(target)
	pr.SetXForwarded()
	if id := httpx.RequestIDFrom(pr.In); id != "" {
		pr.Out.Header.Set(httpx.RequestIDHeader, id)
	}
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Error("upstream request failed")
	httpx.JSONError(w, r, http.StatusBadGateway, "Upstream service failed", nil)
}
