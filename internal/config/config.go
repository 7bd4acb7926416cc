package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Security    SecurityConfig    `yaml:"security" envconfig:"SECURITY"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	ModelRunner ModelRunnerConfig `yaml:"model_runner" envconfig:"MODEL_RUNNER"`
	Analytics   AnalyticsConfig   `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ModelRunnerConfig contains the upstream model-runner client configuration.
// An empty BaseURL means the model runner is not configured; endpoints that
// need it respond with 503 MODEL_RUNNER_NOT_CONFIGURED.
type ModelRunnerConfig struct {
	BaseURL    string        `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey     string        `yaml:"api_key" envconfig:"API_KEY"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
}

// Configured reports whether a model-runner endpoint has been set.
func (c ModelRunnerConfig) Configured() bool {
	return c.BaseURL != ""
}

// AnalyticsConfig contains defaults and limits for the analytics endpoints
type AnalyticsConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold" envconfig:"DEFAULT_THRESHOLD"`
	DefaultTopN      int     `yaml:"default_top_n" envconfig:"DEFAULT_TOP_N"`
	MaxRangeDays     int     `yaml:"max_range_days" envconfig:"MAX_RANGE_DAYS"`
	MaxParallel      int     `yaml:"max_parallel" envconfig:"MAX_PARALLEL"`
}

// Load loads configuration layered as defaults, then config file, then
// environment variables (highest precedence), and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile layers YAML file values over the current config. Fields
// absent from the file keep their existing values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limit rps must be positive")
		}
		if c.Security.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	// Structured JSON logs only; unknown formats are coerced
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/fincast.log"
	}

	if c.ModelRunner.Configured() {
		u, err := url.Parse(c.ModelRunner.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid model runner base URL: %q", c.ModelRunner.BaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("model runner base URL must be http or https, got %q", u.Scheme)
		}
		if c.ModelRunner.Timeout <= 0 {
			return fmt.Errorf("model runner timeout must be positive")
		}
		if c.ModelRunner.MaxRetries < 0 {
			return fmt.Errorf("model runner max retries must not be negative")
		}
	}

	if c.Analytics.DefaultThreshold <= 0 {
		return fmt.Errorf("analytics default threshold must be positive")
	}

	if c.Analytics.DefaultTopN <= 0 {
		return fmt.Errorf("analytics default top N must be positive")
	}

	if c.Analytics.MaxRangeDays <= 0 {
		return fmt.Errorf("analytics max range days must be positive")
	}

	if c.Analytics.MaxParallel <= 0 {
		return fmt.Errorf("analytics max parallel must be positive")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "stdout",
			FilePath:    "logs/fincast.log",
			Development: false,
		},
		ModelRunner: ModelRunnerConfig{
			BaseURL:    "",
			APIKey:     "",
			Timeout:    DefaultModelRunnerTimeout,
			MaxRetries: DefaultModelRunnerRetries,
		},
		Analytics: AnalyticsConfig{
			DefaultThreshold: DefaultAnomalyThreshold,
			DefaultTopN:      DefaultAttributionTopN,
			MaxRangeDays:     DefaultMaxRangeDays,
			MaxParallel:      DefaultProjectionParallelism,
		},
	}
}
