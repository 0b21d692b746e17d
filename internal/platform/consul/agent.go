package consul

import (
	"context"
	"fmt"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/hashicorp/consul/api"
	"github.com/sirupsen/logrus"
)

// Agent links a running service to Consul. A nil *Agent means Consul is
// disabled and every method is a no-op.
type Agent struct {
	Client *api.Client
	id     string
	log    logrus.FieldLogger
}

// Join connects to the agent configured in src, merges the service's KV
// config document into src and registers the instance with an HTTP check on
// healthPath. It returns nil when consul.enabled is false.
func Join(ctx context.Context, src *config.Source, healthPath string, log logrus.FieldLogger) (*Agent, error) {
	cfg := src.Consul()
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := NewClient(cfg.Address, cfg.Token)
	if err != nil {
		return nil, err
	}

	doc, err := LoadConfig(ctx, client, cfg.ConfigKey)
	if err != nil {
		return nil, err
	}
	if err := src.MergeYAML(doc); err != nil {
		return nil, fmt.Errorf("consul key %s: %w", cfg.ConfigKey, err)
	}

	// the merged document may move the listener
	cfg = src.Consul()
	reg := Registration{
		ID:            cfg.ServiceID,
		Name:          cfg.ServiceName,
		Address:       cfg.ServiceAddress,
		Port:          cfg.ServicePort,
		HealthPath:    healthPath,
		CheckInterval: cfg.CheckInterval,
	}
	if err := Register(client, reg); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"service_id": reg.ID,
		"config_key": cfg.ConfigKey,
		"merged":     len(doc) > 0,
	}).Info("registered with consul")
	return &Agent{Client: client, id: reg.ID, log: log}, nil
}

// Leave deregisters the instance.
func (a *Agent) Leave() {
	if a == nil {
		return
	}
	if err := Deregister(a.Client, a.id); err != nil {
		a.log.WithError(err).Warn("consul deregistration failed")
	}
}
