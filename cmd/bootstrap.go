package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/config"
)

// loadConfigAndLogger is the common bootstrap every subcommand starts
// with: load config, then build the logger.
func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	if config.UsedLegacyAPIKeyAlias() {
		logger.Warn("deprecated-config-alias", zap.String("note", "EXCHANGE_API_KEY is deprecated, use EXCHANGE_API_KEY_ID"))
	}

	return cfg, logger, nil
}
