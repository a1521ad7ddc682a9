package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Dialog    DialogConfig    `mapstructure:"dialog"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TelegramConfig defines the chat transport settings
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // long-poll timeout in seconds
}

// GeneratorConfig defines the text generation backend
type GeneratorConfig struct {
	Provider  string `mapstructure:"provider"` // "openai" or "template"
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	Timeout   string `mapstructure:"timeout"`
	CacheSize int    `mapstructure:"cache_size"` // 0 disables the response cache
}

// QuotaConfig defines the per-user generation quota
type QuotaConfig struct {
	Limit           int    `mapstructure:"limit"`
	Window          string `mapstructure:"window"`
	ChargeOnFailure bool   `mapstructure:"charge_on_failure"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "jsonfile", "bolt" or "redis"
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// DialogConfig defines conversation session settings
type DialogConfig struct {
	SessionIdleTimeout string `mapstructure:"session_idle_timeout"`
}

// AdminConfig defines the admin surfaces
type AdminConfig struct {
	UserID      int64  `mapstructure:"user_id"` // Telegram user allowed to run /stats
	Enabled     bool   `mapstructure:"enabled"` // HTTP admin API
	BindAddress string `mapstructure:"bind_address"`
	Port        int    `mapstructure:"port"`
	Token       string `mapstructure:"token"`
}

// ServerConfig defines auxiliary server ports
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("DARSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Telegram defaults. The empty token default registers the key so the
	// DARSBOT_TELEGRAM_TOKEN environment variable reaches Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout", 30)

	// Generator defaults
	v.SetDefault("generator.provider", "template")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "https://api.openai.com/v1")
	v.SetDefault("generator.model", "gpt-4o-mini")
	v.SetDefault("generator.timeout", "60s")
	v.SetDefault("generator.cache_size", 128)

	// Quota defaults: 5 generations per rolling 30 days
	v.SetDefault("quota.limit", 5)
	v.SetDefault("quota.window", "720h")
	v.SetDefault("quota.charge_on_failure", false)

	// Storage defaults
	v.SetDefault("storage.type", "jsonfile")
	v.SetDefault("storage.path", "/var/lib/darsbot/users.json")
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Dialog defaults
	v.SetDefault("dialog.session_idle_timeout", "30m")

	// Admin defaults
	v.SetDefault("admin.user_id", 0)
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.bind_address", "127.0.0.1")
	v.SetDefault("admin.port", 8086)
	v.SetDefault("admin.token", "")

	// Server defaults
	v.SetDefault("server.bind_address", "0.0.0.0")
	v.SetDefault("server.metrics_port", 9090)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (telegram.token or DARSBOT_TELEGRAM_TOKEN)")
	}

	switch cfg.Generator.Provider {
	case "openai":
		if cfg.Generator.APIKey == "" {
			return fmt.Errorf("generator api_key is required for the openai provider")
		}
	case "template":
	default:
		return fmt.Errorf("unknown generator provider: %s", cfg.Generator.Provider)
	}

	if cfg.Quota.Limit <= 0 {
		return fmt.Errorf("quota limit must be positive, got %d", cfg.Quota.Limit)
	}

	switch cfg.Storage.Type {
	case "jsonfile", "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	case "redis":
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Admin.Enabled {
		if cfg.Admin.Token == "" {
			return fmt.Errorf("admin token is required when the admin API is enabled")
		}
		if cfg.Admin.Port <= 0 || cfg.Admin.Port > 65535 {
			return fmt.Errorf("invalid admin port: %d", cfg.Admin.Port)
		}
	}

	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	return nil
}
