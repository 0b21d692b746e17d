package main

import (
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/email"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/elastic"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/mail"
)

const serviceName = "email-service"

type Config struct {
	LogLevel        string
	Version         string
	ShutdownTimeout time.Duration

	HTTP    config.HTTP
	AMQP    config.AMQP
	Elastic elastic.Config
	Index   string
	Mail    mail.Config

	Workers          int
	QueueSize        int
	RetryInterval    time.Duration
	RetryMaxAttempts int
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":                ":8081",
		"es.addresses":             []string{"http://localhost:9200"},
		"es.username":              "",
		"es.password":              "",
		"es.index":                 email.IndexName,
		"mail.host":                "localhost",
		"mail.port":                1025,
		"mail.username":            "",
		"mail.password":            "",
		"mail.from":                "noreply@profitsoft.local",
		"mail.tls":                 "none",
		"mail.timeout":             15 * time.Second,
		"email.workers":            4,
		"email.queue_size":         100,
		"email.retry_interval":     email.DefaultRetryInterval,
		"email.retry_max_attempts": 0,
	}
}

func loadConfig(src *config.Source) Config {
	return Config{
		LogLevel:        src.String("log.level"),
		Version:         src.String("app.version"),
		ShutdownTimeout: src.Duration("shutdown.timeout"),
		HTTP:            src.HTTP(),
		AMQP:            src.AMQP(),
		Elastic: elastic.Config{
			Addresses: src.List("es.addresses"),
			Username:  src.String("es.username"),
			Password:  src.String("es.password"),
		},
		Index: src.String("es.index"),
		Mail: mail.Config{
			Host:     src.String("mail.host"),
			Port:     src.Int("mail.port"),
			Username: src.String("mail.username"),
			Password: src.String("mail.password"),
			From:     src.String("mail.from"),
			TLS:      src.String("mail.tls"),
			Timeout:  src.Duration("mail.timeout"),
		},
		Workers:          src.Int("email.workers"),
		QueueSize:        src.Int("email.queue_size"),
		RetryInterval:    src.Duration("email.retry_interval"),
		RetryMaxAttempts: src.Int("email.retry_max_attempts"),
	}
}
