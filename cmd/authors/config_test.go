package main

import (
	"testing"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig(config.New(serviceName, defaults()))

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.DatabaseTimeout)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "email.send", cfg.AMQP.RoutingKey)
	assert.Contains(t, cfg.DatabaseDSN, "/profitsoft")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/authors")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("AMQP_EXCHANGE", "mail")

	cfg := loadConfig(config.New(serviceName, defaults()))

	assert.Equal(t, "postgres://u:p@db:5432/authors", cfg.DatabaseDSN)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "mail", cfg.AMQP.Exchange)
}
