// Command migrate applies, rolls back or inspects the authors schema.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/dmytrozahor/PS-Task-6/internal/config"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/logging"
	"github.com/dmytrozahor/PS-Task-6/internal/platform/postgres"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	src := config.New("migrate", map[string]any{"db.dsn": defaultDSN, "db.timeout": 5 * time.Second})
	log := logging.New(src.String("log.level"), nil)

	if *command == "create" {
		if *name == "" {
			log.Fatal("Name is required for 'create' command")
		}
		if err := goose.Create(nil, sourceDir, *name, "sql"); err != nil {
			log.WithError(err).Fatal("Failed to create migration")
		}
		log.WithField("name", *name).Info("Migration created")
		return
	}

	ctx := context.Background()
	dsn := src.String("db.dsn")
	pool, err := postgres.Open(ctx, dsn, src.Duration("db.timeout"))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	fsys, dir := migrationSource()
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		log.WithError(err).Fatal("Failed to select dialect")
	}

	switch *command {
	case "up":
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
		log.Info("Migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			log.WithError(err).Fatal("Failed to rollback migrations")
		}
		log.Info("Migrations rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, sqlDB, dir); err != nil {
			log.WithError(err).Fatal("Failed to check migration status")
		}
	default:
		log.Fatalf("Unknown command: %s. Use: up, down, status, create", *command)
	}
}
