package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danghamo/mlg/internal/spawngrid"
)

// Config represents the application configuration
type Config struct {
	World WorldConfig `mapstructure:"world"`
	Grid  GridConfig  `mapstructure:"grid"`
	Log   LogConfig   `mapstructure:"log"`
}

// WorldConfig holds the world directory and how its files are backed up
type WorldConfig struct {
	Path            string `mapstructure:"path"`
	BackupSuffix    string `mapstructure:"backup_suffix"`
	RegionExtension string `mapstructure:"region_extension"`
	StaleBackup     string `mapstructure:"stale_backup"`
	VerifyCopies    bool   `mapstructure:"verify_copies"`
}

// GridConfig holds spawn grid defaults
type GridConfig struct {
	Increment int `mapstructure:"increment"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
	Encoding    string `mapstructure:"encoding"`
}

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// BindFlags registers the command line flags that override config keys.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("world", "w", "", "path to the world directory")
	fs.String("backup-suffix", "", "suffix of backup files")
	fs.String("region-extension", "", "region file extension")
	fs.String("stale-backup", "", "what to do with backups left by an unfinished session: fail, resume or discard")
	fs.Int("increment", 0, "maximum chunks between two spawn points")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("config", "", "config file to read instead of searching for mlg.yaml")
}

var flagKeys = map[string]string{
	"world":            "world.path",
	"backup-suffix":    "world.backup_suffix",
	"region-extension": "world.region_extension",
	"stale-backup":     "world.stale_backup",
	"increment":        "grid.increment",
	"log-level":        "log.level",
}

// Load loads configuration from defaults, an optional config file,
// MLG_* environment variables and, when fs is non-nil, changed flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("mlg")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/mlg")

	v.SetEnvPrefix("mlg")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("world.path", "")
	v.SetDefault("world.backup_suffix", ".mlg-backup")
	v.SetDefault("world.region_extension", "mca")
	// each CLI invocation opens a new session, so backups left by an earlier
	// command are adopted until reset
	v.SetDefault("world.stale_backup", "resume")
	v.SetDefault("world.verify_copies", true)

	v.SetDefault("grid.increment", spawngrid.DefaultIncrement)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
	v.SetDefault("log.encoding", "console")
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.World.Path) == "" {
		return fmt.Errorf("%w: world path cannot be empty", ErrInvalidConfig)
	}

	if cfg.World.BackupSuffix == "" {
		return fmt.Errorf("%w: backup suffix cannot be empty", ErrInvalidConfig)
	}

	if strings.ContainsAny(cfg.World.RegionExtension, `/\.`) || cfg.World.RegionExtension == "" {
		return fmt.Errorf("%w: invalid region extension %q", ErrInvalidConfig, cfg.World.RegionExtension)
	}

	if !contains([]string{"fail", "resume", "discard"}, cfg.World.StaleBackup) {
		return fmt.Errorf("%w: invalid stale backup policy: %s", ErrInvalidConfig, cfg.World.StaleBackup)
	}

	if cfg.Grid.Increment < 1 {
		return fmt.Errorf("%w: grid increment must be at least 1", ErrInvalidConfig)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfig, cfg.Log.Level)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, cfg.Log.Encoding) {
		return fmt.Errorf("%w: invalid log encoding: %s", ErrInvalidConfig, cfg.Log.Encoding)
	}

	return nil
}

// IsProduction returns true if the environment is production
func (l *LogConfig) IsProduction() bool {
	return strings.ToLower(l.Environment) == "production"
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
