package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/danghamo/mlg/pkg/logger"
)

// Initialize loads configuration and builds the logger it describes
func Initialize(fs *pflag.FlagSet) (*Config, *logger.Logger, error) {
	cfg, err := Load(fs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Log.Level),
		Environment: environment(&cfg.Log),
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	appLogger.WithFields(map[string]interface{}{
		"world":        cfg.World.Path,
		"stale_backup": cfg.World.StaleBackup,
		"log_level":    cfg.Log.Level,
	}).Debug("Configuration and logger initialized")

	return cfg, appLogger, nil
}

func environment(l *LogConfig) string {
	if l.IsProduction() {
		return "production"
	}
	return l.Environment
}
