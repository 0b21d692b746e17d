package main

import (
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
)

const serviceName = "gateway"

type Config struct {
	LogLevel        string
	Version         string
	ShutdownTimeout time.Duration

	HTTP config.HTTP

	AuthorsService string
	EmailService   string
	// Static targets, used when Consul is disabled.
	AuthorsURL string
	EmailURL   string
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":               ":8000",
		"gateway.authors_service": "authors-service",
		"gateway.email_service":   "email-service",
		"gateway.authors_url":     "http://localhost:8080",
		"gateway.email_url":       "http://localhost:8081",
	}
}

func loadConfig(src *config.Source) Config {
	return Config{
		LogLevel:        src.String("log.level"),
		Version:         src.String("app.version"),
		ShutdownTimeout: src.Duration("shutdown.timeout"),
		HTTP:            src.HTTP(),
		AuthorsService:  src.String("gateway.authors_service"),
		EmailService:    src.String("gateway.email_service"),
		AuthorsURL:      src.String("gateway.authors_url"),
		EmailURL:        src.String("gateway.email_url"),
	}
}

func (c Config) staticTargets() map[string]string {
	return map[string]string{
		c.AuthorsService: c.AuthorsURL,
		c.EmailService:   c.EmailURL,
	}
}
