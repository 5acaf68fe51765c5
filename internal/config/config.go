package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. EVENT_HOOKS_LOGGING_LEVEL
const EnvPrefix = "EVENT_HOOKS"

// InitConfig initializes the configuration using Viper. A non-empty
// configPath replaces the search of the default locations.
func InitConfig(configPath string) error {
	// Load .env file if it exists (fail silently if not found)
	loadEnvFiles()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetDefaultConfigDir())
		viper.AddConfigPath(".")
	}

	setDefaults()

	// Enable environment variable overrides
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (it's okay if it doesn't exist)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config; %w", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("settings.path", DefaultConfig.Settings.Path)
	viper.SetDefault("events.topic", DefaultConfig.Events.Topic)
	viper.SetDefault("spool.dir", DefaultConfig.Spool.Dir)
	viper.SetDefault("logging.level", DefaultConfig.Logging.Level)
	viper.SetDefault("logging.format", DefaultConfig.Logging.Format)
	viper.SetDefault("logging.file", DefaultConfig.Logging.File)
	viper.SetDefault("logging.max_size_mb", DefaultConfig.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_age_days", DefaultConfig.Logging.MaxAgeDays)
	viper.SetDefault("logging.max_backups", DefaultConfig.Logging.MaxBackups)
	viper.SetDefault("journal.file", DefaultConfig.Journal.File)
	viper.SetDefault("journal.format", DefaultConfig.Journal.Format)
}

// GetConfig returns the current configuration
func GetConfig() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory; %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// loadEnvFiles loads environment variables from .env files
// It tries multiple locations and fails silently if files don't exist
func loadEnvFiles() {
	locations := []string{
		".env",
		filepath.Join(GetDefaultConfigDir(), ".env"),
	}

	// Also try .env.local for local overrides
	localLocations := []string{
		".env.local",
		filepath.Join(GetDefaultConfigDir(), ".env.local"),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			_ = godotenv.Load(location) // Fail silently
		}
	}

	// godotenv.Load never overrides, so .env.local goes through Overload
	for _, location := range localLocations {
		if _, err := os.Stat(location); err == nil {
			_ = godotenv.Overload(location) // Fail silently
		}
	}
}
