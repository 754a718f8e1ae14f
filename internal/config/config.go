// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server         ServerConfig
	Log            LogConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	CurrencyFreaks CurrencyFreaksConfig `mapstructure:"currencyfreaks"`
	Table          TableConfig
	Facts          FactsConfig
	Worker         WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the Asynq task queue.
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the fact cache.
}

// CurrencyFreaksConfig holds settings for the rate source.
type CurrencyFreaksConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"` // 0 leaves the bound to the caller's context.
}

// TableConfig holds rate table settings.
type TableConfig struct {
	StartingCurrency   string `mapstructure:"starting_currency"`
	ClassificationFile string `mapstructure:"classification_file"` // Empty selects the built-in table.
}

// FactsConfig holds settings for the text-generation service.
type FactsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	SystemPrompt      string `mapstructure:"system_prompt"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	CacheTTLSec       int    `mapstructure:"cache_ttl_sec"`
	RetentionSec      int    `mapstructure:"retention_sec"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	MaxRetry         int    `mapstructure:"max_retry"`
	TimeoutSec       int    `mapstructure:"timeout_sec"`
	CheckIntervalSec int    `mapstructure:"check_interval_sec"`
	RefreshCron      string `mapstructure:"refresh_cron"` // Empty disables scheduled refreshes.
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("RATEMATCH")
	v.SetEnvKeyReplacer(envReplacer())
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	return unmarshal(v)
}

func envReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ratematch")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("currencyfreaks.base_url", "https://api.currencyfreaks.com")
	v.SetDefault("currencyfreaks.api_key", "")
	v.SetDefault("currencyfreaks.timeout_sec", 10)
	v.SetDefault("table.starting_currency", "USD")
	v.SetDefault("table.classification_file", "")
	v.SetDefault("facts.enabled", true)
	v.SetDefault("facts.base_url", "https://api.deepseek.com")
	v.SetDefault("facts.api_key", "")
	v.SetDefault("facts.model", "deepseek-chat")
	v.SetDefault("facts.system_prompt", DefaultFactPrompt)
	v.SetDefault("facts.requests_per_minute", 20)
	v.SetDefault("facts.cache_ttl_sec", 86400)
	v.SetDefault("facts.retention_sec", 600)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.timeout_sec", 30)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("worker.refresh_cron", "")
}

// DefaultFactPrompt is the system prompt sent with every fact request.
const DefaultFactPrompt = "Random fun fact about currency symbol provided by user. Max 3 sentences"

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Table.StartingCurrency = strings.ToUpper(strings.TrimSpace(cfg.Table.StartingCurrency))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATEMATCH_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATEMATCH_REDIS_CACHE_ADDR)"))
	}

	if c.CurrencyFreaks.BaseURL == "" {
		errs = append(errs, fmt.Errorf("currencyfreaks.base_url is required"))
	}
	if c.CurrencyFreaks.APIKey == "" {
		errs = append(errs, fmt.Errorf("currencyfreaks.api_key is required (set RATEMATCH_CURRENCYFREAKS_API_KEY)"))
	}
	if c.CurrencyFreaks.Timeout < 0 {
		errs = append(errs, fmt.Errorf("currencyfreaks.timeout_sec must be non-negative, got %d", c.CurrencyFreaks.Timeout))
	}

	if len(c.Table.StartingCurrency) == 0 {
		errs = append(errs, fmt.Errorf("table.starting_currency is required"))
	}

	if c.Facts.Enabled {
		if c.Facts.BaseURL == "" {
			errs = append(errs, fmt.Errorf("facts.base_url is required when facts are enabled"))
		}
		if c.Facts.APIKey == "" {
			errs = append(errs, fmt.Errorf("facts.api_key is required when facts are enabled (set RATEMATCH_FACTS_API_KEY)"))
		}
		if c.Facts.Model == "" {
			errs = append(errs, fmt.Errorf("facts.model is required when facts are enabled"))
		}
		if c.Facts.RequestsPerMinute <= 0 {
			errs = append(errs, fmt.Errorf("facts.requests_per_minute must be positive, got %d", c.Facts.RequestsPerMinute))
		}
		if c.Facts.CacheTTLSec <= 0 {
			errs = append(errs, fmt.Errorf("facts.cache_ttl_sec must be positive, got %d", c.Facts.CacheTTLSec))
		}
		if c.Facts.RetentionSec <= 0 {
			errs = append(errs, fmt.Errorf("facts.retention_sec must be positive, got %d", c.Facts.RetentionSec))
		}
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	return errors.Join(errs...)
}
