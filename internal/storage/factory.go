package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/config"
)

// New selects and constructs a Store per cfg.StorageMode. "postgres" dials
// and migrates a PostgresStore; "console" (the default) builds the
// dependency-free ConsoleStore; any other mode is an error.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StorageMode {
	case "postgres":
		store, err := NewPostgresStore(ctx, &PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("construct postgres store: %w", err)
		}
		return store, nil
	case "console":
		return NewConsoleStore(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}
}
