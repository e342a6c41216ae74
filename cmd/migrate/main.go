package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"expiry-backend/internal/shared/config"
	"expiry-backend/internal/shared/storage/db"
	"expiry-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		telemetry.Error("migrate.missing_database_url", nil)
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}
