package main

// Run database migrations:
//   go run ./cmd/migrate               (postgres, DATABASE_URL)
//   go run ./cmd/migrate -dialect sqlite

import (
	"context"
	"database/sql"
	"flag"
	"os"

	"docprep-backend/internal/shared/config"
	"docprep-backend/internal/shared/storage/db"
	"docprep-backend/internal/shared/telemetry"
)

func main() {
	dialect := flag.String("dialect", db.DialectPostgres, "database dialect: postgres or sqlite")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	var (
		sqlDB *sql.DB
		err   error
	)
	switch *dialect {
	case db.DialectSQLite:
		sqlDB, err = db.ConnectSQLite(ctx, cfg.SQLitePath)
	default:
		opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"dialect": *dialect, "error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, *dialect); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"dialect": *dialect, "error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.complete", map[string]any{"dialect": *dialect})
}
