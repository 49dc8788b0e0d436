// Package cli provides common initialization for the command line entry
// point: environment loading, logger and config setup, and backend selection.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/NikBulygin/financeTracker/internal/config"
	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/mirror"
	mirrordrive "github.com/NikBulygin/financeTracker/internal/mirror/drive"
	mirrormem "github.com/NikBulygin/financeTracker/internal/mirror/memory"
	"github.com/NikBulygin/financeTracker/internal/storage"
	storagemem "github.com/NikBulygin/financeTracker/internal/storage/memory"
)

// SetupLogger initializes structured logging and sets it as the default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it. Exits the
// process on validation failure; an identity is always required.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.Identity == "" {
		logger.Error("no identity configured, set FT_IDENTITY")
		os.Exit(1)
	}
	return cfg
}

// NewStore builds the table store named by the config. The returned closer is
// a no-op for the in-memory backend.
func NewStore(cfg *config.Config, agent string, logger *log.Logger) (storage.TableStore, func() error, error) {
	switch cfg.DataBackend {
	case "sqlite":
		s, err := storage.Open(cfg.SQLiteDBPath, config.AppVersion, agent, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage at %s: %w", cfg.SQLiteDBPath, err)
		}
		return s, s.Close, nil
	default:
		logger.Warn("using in-memory storage, data will not persist")
		return storagemem.New(config.AppVersion, agent), func() error { return nil }, nil
	}
}

// NewMirror builds the remote mirror backend named by the config.
func NewMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (mirror.Storage, error) {
	switch cfg.MirrorBackend {
	case "drive":
		client, err := mirrordrive.NewFromEnv(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize drive mirror: %w", err)
		}
		return client, nil
	default:
		logger.Warn("using in-memory mirror, remote copies will not persist")
		return mirrormem.New(), nil
	}
}
