package main

// Run database migrations for the configured store:
//   go run ./cmd/migrate

import (
	"context"
	"database/sql"
	"log"
	"os"

	"resume-match/internal/shared/config"
	"resume-match/internal/shared/storage/db"
	"resume-match/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if logger, err := telemetry.New(cfg.LogJSON, cfg.LogDebug); err == nil {
		telemetry.Set(logger)
		defer func() { _ = logger.Sync() }()
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	var (
		sqlDB   *sql.DB
		dialect db.Dialect
		err     error
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		dialect = db.Postgres
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	case config.StoreSQLite:
		dialect = db.SQLite
		sqlDB, err = db.ConnectSQLite(ctx, cfg.SQLitePath, db.DefaultSQLiteOptions())
	default:
		log.Printf("store driver %q has no migrations", cfg.StoreDriver)
		return
	}
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
	telemetry.Info("migrate.complete", map[string]any{"dialect": dialect.String()})
}
