// Package config loads the service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config holds the configuration of the pagedlist service.
type Config struct {
	// HTTP server
	Port int

	Redis    RedisConfig
	Upstream UpstreamConfig
	Log      LogConfig

	// PageSize is the upstream page size used to derive the page count.
	PageSize int
}

// RedisConfig holds the connection settings for the page cache and rate
// limit state.
type RedisConfig struct {
	// URL is either a host:port address or a redis:// URL.
	URL      string
	Password string
	DB       int
}

// UpstreamConfig holds the discovery API settings.
type UpstreamConfig struct {
	BaseURL        string
	APIKey         string
	Sort           string
	UserAgent      string
	RequestTimeout time.Duration
	RateLimit      int // requests per second, 0 disables pacing
	MaxRetries     int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from the environment. When envFilePath is set,
// the file is loaded first; a missing file is not an error. Variables that
// are already set in the environment win over the file.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		Port: getEnvAsInt("PAGEDLIST_PORT", 8080),
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Upstream: UpstreamConfig{
			BaseURL:        getEnv("MOVIES_BASE_URL", "https://api.themoviedb.org/3"),
			APIKey:         getEnv("MOVIES_API_KEY", ""),
			Sort:           getEnv("MOVIES_SORT", "popularity.desc"),
			UserAgent:      getEnv("USER_AGENT", "pagedlist/0.1.0"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
			RateLimit:      getEnvAsInt("RATE_LIMIT", 10),
			MaxRetries:     getEnvAsInt("MAX_RETRIES", 2),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		PageSize: getEnvAsInt("PAGE_SIZE", 20),
	}

	return cfg, nil
}

// Validate checks value ranges. It does not contact Redis or the upstream.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PAGEDLIST_PORT must be in 1..65535 (got %d)", c.Port))
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be >= 0 (got %d)", c.Redis.DB))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("MOVIES_BASE_URL is required"))
	}
	if c.Upstream.UserAgent == "" {
		errs = append(errs, errors.New("USER_AGENT is required"))
	}
	if c.Upstream.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive (got %s)", c.Upstream.RequestTimeout))
	}
	if c.Upstream.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must be >= 0 (got %d)", c.Upstream.RateLimit))
	}
	if c.Upstream.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be >= 0 (got %d)", c.Upstream.MaxRetries))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive (got %d)", c.PageSize))
	}

	return errors.Join(errs...)
}

// RedisOptions converts the Redis settings into client options.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if strings.HasPrefix(c.Redis.URL, "redis://") || strings.HasPrefix(c.Redis.URL, "rediss://") {
		opts, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		if c.Redis.Password != "" {
			opts.Password = c.Redis.Password
		}
		if c.Redis.DB != 0 {
			opts.DB = c.Redis.DB
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     c.Redis.URL,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}, nil
}

// getEnv returns the variable or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the variable as an integer, or defaultValue when it is
// unset or not a number.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool accepts the values understood by strconv.ParseBool.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("15s") and plain seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
