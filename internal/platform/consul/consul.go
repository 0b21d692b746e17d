// Package consul registers services with the local agent, reads their YAML
// configuration from the KV store and resolves healthy instances.
package consul

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/consul/api"
)

// ErrNoInstances is returned when a service has no passing instance.
var ErrNoInstances = errors.New("consul: no healthy instances")

func NewClient(address, token string) (*api.Client, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}
	if token != "" {
		cfg.Token = token
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}
	return client, nil
}

// Registration describes one service instance and its HTTP health check.
type Registration struct {
	ID            string
	Name          string
	Address       string
	Port          int
	Tags          []string
	HealthPath    string
	CheckInterval time.Duration
}

func (r Registration) agentRegistration() *api.AgentServiceRegistration {
	interval := r.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	host := r.Address
	if host == "" {
		host = "localhost"
	}
	return &api.AgentServiceRegistration{
		ID:      r.ID,
		Name:    r.Name,
		Address: r.Address,
		Port:    r.Port,
		Tags:    r.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           "http://" + net.JoinHostPort(host, strconv.Itoa(r.Port)) + r.HealthPath,
			Interval:                       interval.String(),
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Register adds the instance to the local agent.
func Register(client *api.Client, r Registration) error {
	if err := client.Agent().ServiceRegister(r.agentRegistration()); err != nil {
		return fmt.Errorf("register %s: %w", r.ID, err)
	}
	return nil
}

func Deregister(client *api.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregister %s: %w", id, err)
	}
	return nil
}

// LoadConfig returns the raw value stored under key, or nil if absent.
func LoadConfig(ctx context.Context, client *api.Client, key string) ([]byte, error) {
	pair, _, err := client.KV().Get(key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("read consul key %s: %w", key, err)
	}
	if pair == nil {
		return nil, nil
	}
	return pair.Value, nil
}

// Resolver picks passing instances of a service in round robin order.
type Resolver struct {
	client *api.Client
	scheme string

	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

func NewResolver(client *api.Client) *Resolver {
	return &Resolver{client: client, scheme: "http", counters: make(map[string]*atomic.Uint64)}
}

func (r *Resolver) Resolve(ctx context.Context, service string) (*url.URL, error) {
	entries, _, err := r.client.Health().Service(service, "", true, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", service, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInstances, service)
	}

	n := r.counter(service).Add(1) - 1
	entry := entries[n%uint64(len(entries))]

	host := entry.Service.Address
	if host == "" && entry.Node != nil {
		host = entry.Node.Address
	}
	return &url.URL{Scheme: r.scheme, Host: net.JoinHostPort(host, strconv.Itoa(entry.Service.Port))}, nil
}

func (r *Resolver) counter(service string) *atomic.Uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[service]
	if !ok {
		c = new(atomic.Uint64)
		r.counters[service] = c
	}
	return c
}

// ErrNoLeader is reported by Check when the agent answers but its cluster has
// not elected a leader.
var ErrNoLeader = errors.New("consul: no cluster leader")

// Check reports whether the agent answers within ctx and knows a leader.
func Check(client *api.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		leader, err := client.Status().LeaderWithQueryOptions((&api.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return err
		}
		if leader == "" {
			return ErrNoLeader
		}
		return nil
	}
}
