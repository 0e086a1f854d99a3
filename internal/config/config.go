package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig            `mapstructure:"server"`
	Database    DatabaseConfig          `mapstructure:"database"`
	Redis       RedisConfig             `mapstructure:"redis"`
	RateLimit   RateLimitConfig         `mapstructure:"rate_limit"`
	Auth        AuthConfig              `mapstructure:"auth"`
	Providers   []ProviderConfig        `mapstructure:"providers"`
	Routes      []RouteConfig           `mapstructure:"routes"`
	Retry       RetryConfig             `mapstructure:"retry"`
	Budgets     map[string]BudgetConfig `mapstructure:"budgets"`
	Estimator   EstimatorConfig         `mapstructure:"estimator"`
	Catalog     CatalogConfig           `mapstructure:"catalog"`
	Analytics   AnalyticsConfig         `mapstructure:"analytics"`
	Maintenance MaintenanceConfig       `mapstructure:"maintenance"`
	Logging     LoggingConfig           `mapstructure:"logging"`
	Telemetry   TelemetryConfig         `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AuthConfig struct {
	// Static API keys accepted in addition to keys stored in the database.
	// Useful for local development and CI.
	StaticKeys []string `mapstructure:"static_keys"`
	Enabled    bool     `mapstructure:"enabled"`
}

// ProviderConfig represents the configuration for a single AI provider.
type ProviderConfig struct {
	ID      string            `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Type    string            `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=openai anthropic google ollama"`
	Name    string            `json:"name" yaml:"name" mapstructure:"name"`
	APIKey  string            `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	BaseURL string            `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Config  map[string]string `json:"config" yaml:"config" mapstructure:"config"`
	Enabled bool              `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// RouteConfig maps a model-id glob pattern to a provider.
type RouteConfig struct {
	Pattern  string `json:"pattern" yaml:"pattern" mapstructure:"pattern" validate:"required"`
	TargetID string `json:"target_id" yaml:"target_id" mapstructure:"target_id" validate:"required"`
}

// RetryConfig feeds the generation orchestrator.
type RetryConfig struct {
	MaxRetries      int      `mapstructure:"max_retries"`
	BaseDelayMs     int      `mapstructure:"base_delay_ms"`
	MaxDelayMs      int      `mapstructure:"max_delay_ms"`
	ExponentialBase float64  `mapstructure:"exponential_base"`
	FallbackOrder   []string `mapstructure:"fallback_order"`
}

// BudgetConfig is a named ceiling set for one request class.
type BudgetConfig struct {
	MaxInputTokens  int     `mapstructure:"max_input_tokens"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	MaxTotalTokens  int     `mapstructure:"max_total_tokens"`
	MaxCostUSD      float64 `mapstructure:"max_cost_usd"`
}

type EstimatorConfig struct {
	DefaultModel string  `mapstructure:"default_model"`
	OutputRatio  float64 `mapstructure:"output_ratio"`
}

type CatalogConfig struct {
	Path       string `mapstructure:"path"`
	ReloadCron string `mapstructure:"reload_cron"`
}

type AnalyticsConfig struct {
	BufferSize    int `mapstructure:"buffer_size"`
	BatchSize     int `mapstructure:"batch_size"`
	FlushInterval int `mapstructure:"flush_interval_seconds"`
}

type MaintenanceConfig struct {
	RetentionDays int    `mapstructure:"retention_days"`
	PurgeCron     string `mapstructure:"purge_cron"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// BudgetFor returns the named budget, or the workout default when the
// name is unknown.
func (c *Config) BudgetFor(name string) BudgetConfig {
	if b, ok := c.Budgets[name]; ok {
		return b
	}
	return c.Budgets["workout_generation"]
}

func (a AnalyticsConfig) FlushDuration() time.Duration {
	return time.Duration(a.FlushInterval) * time.Second
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	setDefaults(v)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API Keys
	for i, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "ENV:") {
			envVar := strings.TrimPrefix(p.APIKey, "ENV:")
			// Check process environment first (explicit override)
			val := os.Getenv(envVar)
			if val == "" {
				// Then check viper (which might have it from other sources)
				val = v.GetString(envVar)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "personalfit.db")

	v.SetDefault("redis.enabled", false)

	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("auth.enabled", true)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay_ms", 1000)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("retry.exponential_base", 2.0)
	v.SetDefault("retry.fallback_order", []string{
		"gpt-4o", "claude-3-5-sonnet-20240620", "gemini-1.5-pro", "gpt-4o-mini",
	})

	v.SetDefault("budgets.workout_generation.max_input_tokens", 8000)
	v.SetDefault("budgets.workout_generation.max_output_tokens", 4000)
	v.SetDefault("budgets.workout_generation.max_total_tokens", 12000)
	v.SetDefault("budgets.workout_generation.max_cost_usd", 0.10)

	v.SetDefault("estimator.default_model", "gpt-4o")
	v.SetDefault("estimator.output_ratio", 0.5)

	v.SetDefault("catalog.path", "models.yaml")
	v.SetDefault("catalog.reload_cron", "*/30 * * * *")

	v.SetDefault("analytics.buffer_size", 10000)
	v.SetDefault("analytics.batch_size", 50)
	v.SetDefault("analytics.flush_interval_seconds", 5)

	v.SetDefault("maintenance.retention_days", 90)
	v.SetDefault("maintenance.purge_cron", "0 3 * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("telemetry.enabled", false)
}
