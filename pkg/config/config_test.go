package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PAGEDLIST_PORT", "REDIS_URL", "REDIS_PASSWORD", "REDIS_DB",
	"MOVIES_BASE_URL", "MOVIES_API_KEY", "MOVIES_SORT", "USER_AGENT",
	"LOG_LEVEL", "LOG_PRETTY", "REQUEST_TIMEOUT", "RATE_LIMIT",
	"MAX_RETRIES", "PAGE_SIZE",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Upstream.BaseURL)
	assert.Equal(t, "popularity.desc", cfg.Upstream.Sort)
	assert.Equal(t, 15*time.Second, cfg.Upstream.RequestTimeout)
	assert.Equal(t, 10, cfg.Upstream.RateLimit)
	assert.Equal(t, 2, cfg.Upstream.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, 20, cfg.PageSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGEDLIST_PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MOVIES_SORT", "revenue.desc")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("REQUEST_TIMEOUT", "7")
	t.Setenv("RATE_LIMIT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "revenue.desc", cfg.Upstream.Sort)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 7*time.Second, cfg.Upstream.RequestTimeout)
	assert.Equal(t, 10, cfg.Upstream.RateLimit, "invalid numbers fall back to the default")
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_AGENT", "from-env/1.0")

	path := filepath.Join(t.TempDir(), ".env")
	content := "MOVIES_API_KEY=file-key\nUSER_AGENT=from-file/1.0\nREQUEST_TIMEOUT=250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Upstream.APIKey)
	assert.Equal(t, "from-env/1.0", cfg.Upstream.UserAgent, "environment wins over the file")
	assert.Equal(t, 250*time.Millisecond, cfg.Upstream.RequestTimeout)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		clearEnv(t)
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "PAGEDLIST_PORT"},
		{"empty redis", func(c *Config) { c.Redis.URL = "" }, "REDIS_URL"},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }, "REDIS_DB"},
		{"empty base url", func(c *Config) { c.Upstream.BaseURL = "" }, "MOVIES_BASE_URL"},
		{"empty user agent", func(c *Config) { c.Upstream.UserAgent = "" }, "USER_AGENT"},
		{"zero timeout", func(c *Config) { c.Upstream.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"negative rate limit", func(c *Config) { c.Upstream.RateLimit = -1 }, "RATE_LIMIT"},
		{"negative retries", func(c *Config) { c.Upstream.MaxRetries = -1 }, "MAX_RETRIES"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "PAGE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGEDLIST_PORT")
	assert.Contains(t, err.Error(), "PAGE_SIZE")
}

func TestRedisOptions(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{URL: "cache:6380", Password: "pw", DB: 2}}
	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	cfg = &Config{Redis: RedisConfig{URL: "redis://:secret@cache:6379/4"}}
	opts, err = cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 4, opts.DB)

	cfg = &Config{Redis: RedisConfig{URL: "redis://cache:6379/notadb"}}
	_, err = cfg.RedisOptions()
	assert.Error(t, err)
}
