// Package config loads the PulsePass runtime configuration from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pulsepass/pulsepass-client/pkg/client"
	"github.com/pulsepass/pulsepass-client/pkg/logging"
	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/redis/go-redis/v9"
)

// DefaultEnvFile is loaded when present and no other file is named.
const DefaultEnvFile = ".env"

// Environment variable names.
const (
	EnvBaseURL        = "PULSEPASS_BASE_URL"
	EnvUserAgent      = "PULSEPASS_USER_AGENT"
	EnvRedisAddr      = "PULSEPASS_REDIS_ADDR"
	EnvRedisDB        = "PULSEPASS_REDIS_DB"
	EnvRedisPassword  = "PULSEPASS_REDIS_PASSWORD"
	EnvRequestTimeout = "PULSEPASS_REQUEST_TIMEOUT"
	EnvPageTimeout    = "PULSEPASS_PAGE_TIMEOUT"
	EnvMaxPages       = "PULSEPASS_MAX_PAGES"
	EnvRetryAttempts  = "PULSEPASS_RETRY_ATTEMPTS"
	EnvListenAddr     = "PULSEPASS_LISTEN_ADDR"
	EnvLogLevel       = "PULSEPASS_LOG_LEVEL"
	EnvLogPretty      = "PULSEPASS_LOG_PRETTY"
)

// Config is the runtime configuration.
type Config struct {
	BaseURL   string `validate:"required,url"`
	UserAgent string `validate:"required,max=200"`

	// RedisAddr enables caching and rate limiting when set.
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisDB       int    `validate:"gte=0,lte=15"`
	RedisPassword string

	RequestTimeout time.Duration `validate:"gt=0"`
	PageTimeout    time.Duration `validate:"gt=0"`
	MaxPages       int           `validate:"gte=1"`
	RetryAttempts  int           `validate:"gte=1,lte=10"`

	ListenAddr string `validate:"required"`

	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogPretty bool
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:8000",
		UserAgent:      "pulsepass-client/1.0",
		RequestTimeout: 30 * time.Second,
		PageTimeout:    15 * time.Second,
		MaxPages:       1000,
		RetryAttempts:  1,
		ListenAddr:     ":8080",
		LogLevel:       "info",
	}
}

// Load reads the configuration. envFile, when non-empty, must exist;
// otherwise DefaultEnvFile is loaded if present. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s file: %w", envFile, err)
		}
	} else if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s file: %w", DefaultEnvFile, err)
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds a validated configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()
	var errs []error

	cfg.BaseURL = getEnv(getenv, EnvBaseURL, cfg.BaseURL)
	cfg.UserAgent = getEnv(getenv, EnvUserAgent, cfg.UserAgent)
	cfg.RedisAddr = getEnv(getenv, EnvRedisAddr, cfg.RedisAddr)
	cfg.RedisPassword = getEnv(getenv, EnvRedisPassword, cfg.RedisPassword)
	cfg.ListenAddr = getEnv(getenv, EnvListenAddr, cfg.ListenAddr)
	cfg.LogLevel = getEnv(getenv, EnvLogLevel, cfg.LogLevel)

	cfg.RedisDB = getInt(getenv, EnvRedisDB, cfg.RedisDB, &errs)
	cfg.MaxPages = getInt(getenv, EnvMaxPages, cfg.MaxPages, &errs)
	cfg.RetryAttempts = getInt(getenv, EnvRetryAttempts, cfg.RetryAttempts, &errs)
	cfg.RequestTimeout = getDuration(getenv, EnvRequestTimeout, cfg.RequestTimeout, &errs)
	cfg.PageTimeout = getDuration(getenv, EnvPageTimeout, cfg.PageTimeout, &errs)
	cfg.LogPretty = getBool(getenv, EnvLogPretty, cfg.LogPretty, &errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Client returns the API client configuration. redisClient may be nil.
func (c Config) Client(redisClient *redis.Client) client.Config {
	cfg := client.DefaultConfig(c.BaseURL, c.UserAgent)
	cfg.Redis = redisClient
	cfg.Timeout = c.RequestTimeout
	cfg.Retry.MaxAttempts = c.RetryAttempts
	return cfg
}

// Collector returns the page cap and per-page timeout.
func (c Config) Collector() pagination.Config {
	cfg := pagination.DefaultConfig()
	cfg.MaxPages = c.MaxPages
	cfg.Timeout = c.PageTimeout
	return cfg
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// RedisOptions returns connection options, or nil when Redis is not configured.
func (c Config) RedisOptions() *redis.Options {
	if c.RedisAddr == "" {
		return nil
	}
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(getenv func(string) string, key string, defaultValue int, errs *[]error) int {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getDuration(getenv func(string) string, key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getBool(getenv func(string) string, key string, defaultValue bool, errs *[]error) bool {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}
