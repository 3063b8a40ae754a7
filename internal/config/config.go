// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	nuts "github.com/vaudience/go-nuts"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database PostgresConfig `mapstructure:"database"`
	Redis    RedisConfig
	Device   DeviceConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DeviceConfig selects which controller the dashboard watches when no
// device id is given explicitly.
type DeviceConfig struct {
	DefaultID string `mapstructure:"default_id"`
}

type SyncConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	HistoryLimit    int           `mapstructure:"history_limit"`
	EventLimit      int           `mapstructure:"event_limit"`
}

// Load initializes configuration from environment variables and config file.
// A missing connection parameter does not abort startup: the sync layer is
// expected to fail its first connection attempt and surface that as an
// error banner, so Load only warns and marks the config degraded.
func Load() (*Config, error) {
	viper.SetEnvPrefix("AGROFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	for _, warning := range config.MissingRequired() {
		nuts.L.Warnf("[Config] %s", warning)
	}

	return &config, nil
}

// MissingRequired reports which required connection parameters are absent.
// A non-empty result means the first connection attempt will fail.
func (c *Config) MissingRequired() []string {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "database host is not set (AGROFLOW_DATABASE__HOST)")
	}
	if c.Database.User == "" {
		missing = append(missing, "database user is not set (AGROFLOW_DATABASE__USER)")
	}
	if c.Redis.Host == "" {
		missing = append(missing, "redis host is not set (AGROFLOW_REDIS__HOST)")
	}
	return missing
}

// Degraded reports whether any required connection parameter is missing.
func (c *Config) Degraded() bool {
	return len(c.MissingRequired()) > 0
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.dbname", "agroflow")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Device defaults
	viper.SetDefault("device.default_id", "AGF-C3-001")

	// Sync defaults
	viper.SetDefault("sync.refresh_interval", "5m")
	viper.SetDefault("sync.history_limit", 48)
	viper.SetDefault("sync.event_limit", 20)
}
