package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/postgres"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

// openStore opens (and migrates) the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case storage.DriverSQLite:
		return sqlite.New(cfg.DBPath)
	case storage.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// migrationDSN is the connection string golang-migrate needs for the driver.
func migrationDSN(cfg *config.Config) (string, error) {
	if cfg.DBDriver != storage.DriverSQLite {
		return cfg.DSN(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return sqlite.DSN(cfg.DBPath), nil
}
